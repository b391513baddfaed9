package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mopage/mopage"
)

// dialEditSocket opens an editor connection for a fresh session and
// consumes the initial render push.
func dialEditSocket(t *testing.T, s *Server) (*websocket.Conn, *Session) {
	t.Helper()
	doc := mopage.NewDocument("WS page", "tester", mopage.CategoryPersonal, "secret")
	session := s.sessions.Create(doc)

	srv := httptest.NewServer(http.HandlerFunc(s.handleEditSocket))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?session=" + session.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var initial renderMessage
	require.NoError(t, conn.ReadJSON(&initial))
	require.Equal(t, "render", initial.Type)
	return conn, session
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(clientMessage{Type: msgType, Payload: raw}))
}

func TestEditSocketAddBlock(t *testing.T) {
	s := newTestServer(t)
	conn, session := dialEditSocket(t, s)

	send(t, conn, "addBlock", mopage.AddBlockCmd{Type: mopage.BlockHeader})

	var msg renderMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "render", msg.Type)
	assert.Contains(t, msg.HTML, "block-header")
	assert.NotEmpty(t, msg.ScrollTo, "new block should be scrolled into view")
	assert.Equal(t, msg.ScrollTo, msg.SelectedID)
	assert.NotEmpty(t, msg.Fields, "selected block exposes its property fields")

	session.With(func(doc *mopage.Document) {
		require.Len(t, doc.Blocks, 1)
		assert.Equal(t, mopage.BlockHeader, doc.Blocks[0].Type)
	})
}

func TestEditSocketDeleteNeedsConfirmation(t *testing.T) {
	s := newTestServer(t)
	conn, session := dialEditSocket(t, s)

	send(t, conn, "addBlock", mopage.AddBlockCmd{Type: mopage.BlockText})
	var msg renderMessage
	require.NoError(t, conn.ReadJSON(&msg))
	blockID := msg.SelectedID

	send(t, conn, "deleteBlock", mopage.DeleteBlockCmd{ID: blockID})
	var confirm confirmMessage
	require.NoError(t, conn.ReadJSON(&confirm))
	require.Equal(t, "confirm", confirm.Type)
	assert.Equal(t, "Delete this block?", confirm.Prompt)
	assert.Equal(t, "deleteBlock", confirm.Redispatch.Type)

	session.With(func(doc *mopage.Document) {
		assert.Len(t, doc.Blocks, 1, "unconfirmed delete must not mutate")
	})

	// Resend exactly what the server handed back.
	require.NoError(t, conn.WriteJSON(confirm.Redispatch))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "render", msg.Type)
	assert.Empty(t, msg.SelectedID)

	session.With(func(doc *mopage.Document) {
		assert.Empty(t, doc.Blocks)
	})
}

func TestEditSocketRejectsBadLinkURL(t *testing.T) {
	s := newTestServer(t)
	conn, session := dialEditSocket(t, s)

	send(t, conn, "addBlock", mopage.AddBlockCmd{Type: mopage.BlockLink})
	var msg renderMessage
	require.NoError(t, conn.ReadJSON(&msg))
	blockID := msg.SelectedID

	send(t, conn, "updateField", mopage.UpdateFieldCmd{
		ID: blockID, Path: "content.url", Value: "javascript:alert(1)",
	})
	var errMsg errorMessage
	require.NoError(t, conn.ReadJSON(&errMsg))
	assert.Equal(t, "error", errMsg.Type)

	session.With(func(doc *mopage.Document) {
		content := doc.Blocks[0].Content.(mopage.LinkContent)
		assert.Empty(t, content.URL)
	})
}

func TestEditSocketUnknownSession(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(http.HandlerFunc(s.handleEditSocket))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?session=nope"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDecodeCommand(t *testing.T) {
	cmd, err := decodeCommand(clientMessage{
		Type:    "moveBlock",
		Payload: json.RawMessage(`{"id":"b1","direction":"up"}`),
	})
	require.NoError(t, err)
	move, ok := cmd.(mopage.MoveBlockCmd)
	require.True(t, ok)
	assert.Equal(t, "b1", move.ID)
	assert.Equal(t, mopage.MoveUp, move.Direction)

	_, err = decodeCommand(clientMessage{Type: "explode", Payload: json.RawMessage(`{}`)})
	require.Error(t, err)

	_, err = decodeCommand(clientMessage{Type: "addBlock", Payload: json.RawMessage(`[`)})
	require.Error(t, err)
}

func TestDecodeCommandValidatesImagePush(t *testing.T) {
	_, err := decodeCommand(clientMessage{
		Type:    "pushArrayItem",
		Payload: json.RawMessage(`{"id":"b1","path":"content.images","value":"data:text/html,evil"}`),
	})
	require.Error(t, err)

	_, err = decodeCommand(clientMessage{
		Type:    "pushArrayItem",
		Payload: json.RawMessage(`{"id":"b1","path":"content.images","value":"data:image/jpeg;base64,abcd"}`),
	})
	require.NoError(t, err)
}

func TestValidateCommand(t *testing.T) {
	doc := mopage.NewDocument("p", "a", mopage.CategoryPersonal, "secret")
	video := doc.AddBlock(mopage.BlockVideo)
	img := doc.AddBlock(mopage.BlockImage)
	text := doc.AddBlock(mopage.BlockText)

	upd := func(id, path string, v any) mopage.Command {
		return mopage.UpdateFieldCmd{ID: id, Path: path, Value: v}
	}

	assert.Error(t, validateCommand(doc, upd(img.ID, "link", "ftp://example.com/x")))
	assert.NoError(t, validateCommand(doc, upd(img.ID, "link", "https://example.com/x")))
	assert.NoError(t, validateCommand(doc, upd(img.ID, "link", "")))

	// Video and image content are URLs; any scheme outside the allowlist
	// is rejected, not just URI-shaped strings.
	assert.Error(t, validateCommand(doc, upd(video.ID, "content", "javascript:alert(document.cookie)")))
	assert.Error(t, validateCommand(doc, upd(video.ID, "content", "data:text/html,evil")))
	assert.NoError(t, validateCommand(doc, upd(video.ID, "content", "https://example.com/embed/1")))
	assert.Error(t, validateCommand(doc, upd(img.ID, "content", "javascript:alert(1)")))
	assert.NoError(t, validateCommand(doc, upd(img.ID, "content", "data:image/jpeg;base64,abcd")))

	// Text content is not a URL and passes untouched.
	assert.NoError(t, validateCommand(doc, upd(text.ID, "content", "note: hello world")))

	// Non-string and non-updateField commands are not URL-checked.
	assert.NoError(t, validateCommand(doc, upd(video.ID, "content.durationSeconds", 3.5)))
	assert.NoError(t, validateCommand(doc, mopage.SelectBlockCmd{ID: text.ID}))
}

func TestEditSocketRejectsVideoScriptURL(t *testing.T) {
	s := newTestServer(t)
	conn, session := dialEditSocket(t, s)

	send(t, conn, "addBlock", mopage.AddBlockCmd{Type: mopage.BlockVideo})
	var msg renderMessage
	require.NoError(t, conn.ReadJSON(&msg))
	blockID := msg.SelectedID

	send(t, conn, "updateField", mopage.UpdateFieldCmd{
		ID: blockID, Path: "content", Value: "javascript:alert(document.cookie)",
	})
	var errMsg errorMessage
	require.NoError(t, conn.ReadJSON(&errMsg))
	assert.Equal(t, "error", errMsg.Type)

	session.With(func(doc *mopage.Document) {
		content := string(doc.Blocks[0].Content.(mopage.TextContent))
		assert.NotContains(t, content, "javascript:")
	})
}

func TestConfirmedCopy(t *testing.T) {
	out := confirmedCopy(clientMessage{
		Type:    "removeArrayItem",
		Payload: json.RawMessage(`{"id":"b1","path":"content.images","index":2}`),
	})
	assert.Equal(t, "removeArrayItem", out.Type)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(out.Payload, &payload))
	assert.Equal(t, true, payload["confirmed"])
	assert.Equal(t, "b1", payload["id"])
	assert.Equal(t, float64(2), payload["index"])
}
