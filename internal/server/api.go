package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/mopage/mopage"
	"github.com/mopage/mopage/internal/imaging"
	"github.com/mopage/mopage/internal/share"
	"github.com/mopage/mopage/internal/store"
)

// maxUploadBytes bounds one image upload before compression.
const maxUploadBytes = 10 << 20

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	type entry struct {
		Name  string `json:"name"`
		Label string `json:"label"`
	}
	templates := s.templates.List()
	out := make([]entry, 0, len(templates))
	for _, t := range templates {
		out = append(out, entry{Name: t.Name, Label: t.Label})
	}
	writeJSON(w, out)
}

// handleProjects serves the project list, absorbing repeat hits with the
// summary cache.
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if summaries, ok := s.listCache.Get(); ok {
		writeJSON(w, summaries)
		return
	}
	summaries, err := s.store.List(r.Context())
	if err != nil {
		log.Printf("[Server] project list: %v", err)
		writeJSONError(w, http.StatusBadGateway, store.UserFriendlyMessage(err))
		return
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}
	s.listCache.Set(summaries)
	writeJSON(w, summaries)
}

// handleNewPage creates an editing session from a template and sends the
// browser to the editor.
func (s *Server) handleNewPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed form")
		return
	}
	password := r.FormValue("password")
	if len(password) < store.MinCredentialLen {
		s.renderFailure(w, http.StatusBadRequest, "Password must be at least 4 characters.")
		return
	}
	title := r.FormValue("title")
	if title == "" {
		s.renderFailure(w, http.StatusBadRequest, "Title is required.")
		return
	}
	tpl, ok := s.templates.Get(r.FormValue("template"))
	if !ok {
		s.renderFailure(w, http.StatusBadRequest, "Unknown template.")
		return
	}
	category := mopage.Category(r.FormValue("category"))
	if category != mopage.CategoryTeam && category != mopage.CategoryPersonal {
		category = mopage.CategoryPersonal
	}

	doc := mopage.FromTemplate(tpl, title, r.FormValue("author"), category, password)
	session := s.sessions.Create(doc)
	log.Printf("[Server] new page session %s (template %s)", session.ID, tpl.Name)
	http.Redirect(w, r, "/edit?session="+session.ID, http.StatusSeeOther)
}

// handleVerify checks the credential against the store, and only on
// success loads the page into a fresh session. A wrong password never
// opens the editor.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed form")
		return
	}
	id := r.FormValue("id")
	password := r.FormValue("password")

	if err := s.store.Verify(r.Context(), id, password); err != nil {
		log.Printf("[Server] verify %s: %v", id, err)
		s.renderFailure(w, statusFor(err), store.UserFriendlyMessage(err))
		return
	}
	page, err := s.store.Get(r.Context(), id)
	if err != nil {
		log.Printf("[Server] load %s: %v", id, err)
		s.renderFailure(w, statusFor(err), store.UserFriendlyMessage(err))
		return
	}

	doc := mopage.NewDocument(page.Title, page.Author, mopage.Category(page.Category), password)
	doc.ID = page.ID
	if err := doc.DecodeBody(page.Data); err != nil {
		log.Printf("[Server] decode %s: %v", id, err)
		s.renderFailure(w, http.StatusInternalServerError, "This page could not be loaded.")
		return
	}

	session := s.sessions.Create(doc)
	log.Printf("[Server] opened page %s in session %s", id, session.ID)
	http.Redirect(w, r, "/edit?session="+session.ID, http.StatusSeeOther)
}

type saveRequest struct {
	Session  string `json:"session"`
	Password string `json:"password"`
}

type saveResponse struct {
	ID        string `json:"id"`
	ViewerURL string `json:"viewerUrl"`
	QRURL     string `json:"qrUrl"`
}

// handleSave serializes the session's document and uploads it. Concurrent
// saves of the same page are last-response-wins, matching the store's own
// semantics.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request")
		return
	}
	session, ok := s.sessions.Get(req.Session)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "editing session expired")
		return
	}

	var saveReq store.SaveRequest
	var encodeErr error
	session.With(func(doc *mopage.Document) {
		if req.Password != "" {
			doc.SetCredential(req.Password)
		}
		var data string
		data, encodeErr = doc.EncodeBody()
		saveReq = store.SaveRequest{
			ID:       doc.ID,
			Title:    doc.Title,
			Author:   doc.Author,
			Category: string(doc.Category),
			Password: doc.Credential(),
			Data:     data,
		}
	})
	if encodeErr != nil {
		log.Printf("[Server] encode for save: %v", encodeErr)
		writeJSONError(w, http.StatusInternalServerError, "This page could not be serialized.")
		return
	}

	id, err := s.store.Save(r.Context(), saveReq)
	if err != nil {
		log.Printf("[Server] save session %s: %v", req.Session, err)
		writeJSONError(w, statusFor(err), store.UserFriendlyMessage(err))
		return
	}
	session.With(func(doc *mopage.Document) { doc.ID = id })
	s.listCache.Invalidate()

	links := share.For(s.cfg.Share.GetViewerBaseURL(s.cfg.Server.Addr()), id)
	writeJSON(w, saveResponse{ID: id, ViewerURL: links.ViewerURL, QRURL: links.QRURL})
}

type deleteRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request")
		return
	}
	if err := s.store.Delete(r.Context(), req.ID, req.Password); err != nil {
		log.Printf("[Server] delete %s: %v", req.ID, err)
		writeJSONError(w, statusFor(err), store.UserFriendlyMessage(err))
		return
	}
	s.listCache.Invalidate()
	writeJSON(w, map[string]string{"status": "deleted"})
}

// handleUpload compresses an uploaded image into an embeddable data URI.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("image")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "could not read upload")
		return
	}
	uri, err := imaging.Compress(data)
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "file is not a supported image")
		return
	}
	writeJSON(w, map[string]string{"dataUri": uri})
}

// renderFailure shows a human-readable failure page for form flows.
func (s *Server) renderFailure(w http.ResponseWriter, status int, message string) {
	s.renderPageStatus(w, status, errorTmpl, map[string]any{"Message": message})
}

// statusFor maps a store error to the HTTP status the API reports.
func statusFor(err error) int {
	var validationErr *store.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}
	var authErr *store.AuthError
	if errors.As(err, &authErr) {
		return http.StatusForbidden
	}
	var notFoundErr *store.NotFoundError
	if errors.As(err, &notFoundErr) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}
