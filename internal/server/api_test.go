package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mopage/mopage"
	"github.com/mopage/mopage/internal/config"
	"github.com/mopage/mopage/internal/devstore"
	"github.com/mopage/mopage/internal/store"
)

// newTestServer builds a Server wired to a throwaway dev store.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	backend, err := devstore.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	storeSrv := httptest.NewServer(devstore.NewHandler(backend))
	t.Cleanup(storeSrv.Close)

	cfg := config.Default()
	cfg.Store.Endpoint = storeSrv.URL
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

// seedPage saves a page straight through the store client and returns its id.
func seedPage(t *testing.T, s *Server, title, password string) string {
	t.Helper()
	doc := mopage.NewDocument(title, "tester", mopage.CategoryTeam, password)
	doc.AddBlock(mopage.BlockHeader)
	data, err := doc.EncodeBody()
	require.NoError(t, err)
	id, err := s.store.Save(context.Background(), store.SaveRequest{
		Title: title, Author: "tester", Category: "team",
		Password: password, Data: data,
	})
	require.NoError(t, err)
	return id
}

func TestHandleTemplates(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.handleTemplates(rec, httptest.NewRequest(http.MethodGet, "/api/templates", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var templates []struct{ Name, Label string }
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &templates))
	names := make([]string, 0, len(templates))
	for _, tpl := range templates {
		names = append(names, tpl.Name)
	}
	assert.Contains(t, names, "newsletter")
	assert.Contains(t, names, "promotion")
	assert.Contains(t, names, "invitation")
}

func TestHandleProjectsUsesCache(t *testing.T) {
	s := newTestServer(t)
	seedPage(t, s, "First", "secret")

	rec := httptest.NewRecorder()
	s.handleProjects(rec, httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []store.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)

	// A save behind the cache's back is invisible until invalidation.
	seedPage(t, s, "Second", "secret")
	rec = httptest.NewRecorder()
	s.handleProjects(rec, httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	assert.Len(t, summaries, 1, "cached list should be served")

	s.listCache.Invalidate()
	rec = httptest.NewRecorder()
	s.handleProjects(rec, httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	assert.Len(t, summaries, 2)
}

func TestHandleNewPage(t *testing.T) {
	s := newTestServer(t)
	form := "template=newsletter&title=My+news&author=kim&category=team&password=secret"
	req := httptest.NewRequest(http.MethodPost, "/api/pages/new", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handleNewPage(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/edit?session="), location)

	sessionID := strings.TrimPrefix(location, "/edit?session=")
	session, ok := s.sessions.Get(sessionID)
	require.True(t, ok)
	session.With(func(doc *mopage.Document) {
		assert.Equal(t, "My news", doc.Title)
		require.Len(t, doc.Blocks, 3)
		assert.Equal(t, mopage.BlockImage, doc.Blocks[0].Type)
		assert.Equal(t, mopage.BlockHeader, doc.Blocks[1].Type)
		assert.Equal(t, mopage.BlockText, doc.Blocks[2].Type)
	})
}

func TestHandleNewPageShortPassword(t *testing.T) {
	s := newTestServer(t)
	form := "template=newsletter&title=x&password=abc"
	req := httptest.NewRequest(http.MethodPost, "/api/pages/new", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handleNewPage(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVerify(t *testing.T) {
	s := newTestServer(t)
	id := seedPage(t, s, "Locked", "secret")

	form := "id=" + id + "&password=wrong-pass"
	req := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handleVerify(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code, "wrong password must not open the editor")

	form = "id=" + id + "&password=secret"
	req = httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	s.handleVerify(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	sessionID := strings.TrimPrefix(rec.Header().Get("Location"), "/edit?session=")
	session, ok := s.sessions.Get(sessionID)
	require.True(t, ok)
	session.With(func(doc *mopage.Document) {
		assert.Equal(t, id, doc.ID)
		assert.Len(t, doc.Blocks, 1)
	})
}

func TestHandleSave(t *testing.T) {
	s := newTestServer(t)
	doc := mopage.NewDocument("Fresh page", "kim", mopage.CategoryPersonal, "secret")
	doc.AddBlock(mopage.BlockText)
	session := s.sessions.Create(doc)

	body, _ := json.Marshal(map[string]string{"session": session.ID, "password": "secret"})
	req := httptest.NewRequest(http.MethodPost, "/api/save", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleSave(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp saveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Contains(t, resp.ViewerURL, "/view?id="+resp.ID)
	assert.Contains(t, resp.QRURL, "api.qrserver.com")

	// The session adopts the store id, so the next save overwrites.
	session.With(func(d *mopage.Document) {
		assert.Equal(t, resp.ID, d.ID)
	})

	page, err := s.store.Get(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh page", page.Title)
}

func TestHandleSaveExpiredSession(t *testing.T) {
	s := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"session": "gone", "password": "secret"})
	rec := httptest.NewRecorder()
	s.handleSave(rec, httptest.NewRequest(http.MethodPost, "/api/save", bytes.NewReader(body)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDelete(t *testing.T) {
	s := newTestServer(t)
	id := seedPage(t, s, "Doomed", "secret")

	body, _ := json.Marshal(map[string]string{"id": id, "password": "secret"})
	rec := httptest.NewRecorder()
	s.handleDelete(rec, httptest.NewRequest(http.MethodPost, "/api/delete", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := s.store.Get(context.Background(), id)
	var notFoundErr *store.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestHandleUpload(t *testing.T) {
	s := newTestServer(t)

	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 12), G: uint8(y * 12), B: 128, A: 255})
		}
	}
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "pic.png")
	require.NoError(t, err)
	_, err = part.Write(pngBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.handleUpload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp["dataUri"], "data:image/jpeg;base64,"))
}

func TestHandleUploadRejectsNonImage(t *testing.T) {
	s := newTestServer(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("image", "notes.txt")
	_, _ = part.Write([]byte("just text"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.handleUpload(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleViewer(t *testing.T) {
	s := newTestServer(t)
	id := seedPage(t, s, "Public page", "secret")

	rec := httptest.NewRecorder()
	s.handleViewer(rec, httptest.NewRequest(http.MethodGet, "/view?id="+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Public page")
	assert.Contains(t, rec.Body.String(), "block-header")

	rec = httptest.NewRecorder()
	s.handleViewer(rec, httptest.NewRequest(http.MethodGet, "/view?id=ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRootLegacyViewerURL(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.handleRoot(rec, httptest.NewRequest(http.MethodGet, "/?id=abc", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/view?id=abc", rec.Header().Get("Location"))
}
