package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mopage/mopage"
	"github.com/mopage/mopage/internal/carousel"
	"github.com/mopage/mopage/internal/security"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The editor is same-origin; the Host header is the origin check.
		origin := r.Header.Get("Origin")
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	},
}

// clientMessage is one command from the editor client.
type clientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// renderMessage pushes fresh canvas and panel state after a command.
type renderMessage struct {
	Type       string         `json:"type"`
	HTML       string         `json:"html"`
	SelectedID string         `json:"selectedId"`
	Fields     []mopage.Field `json:"fields"`
	ScrollTo   string         `json:"scrollTo,omitempty"`
}

// confirmMessage asks the client to confirm a destructive command. The
// redispatch carries the same command with its confirmed flag set, so the
// client resends it verbatim on OK.
type confirmMessage struct {
	Type       string        `json:"type"`
	Prompt     string        `json:"prompt"`
	Redispatch clientMessage `json:"redispatch"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// handleEditSocket runs one editor connection: commands in, renders out.
func (s *Server) handleEditSocket(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessions.Get(r.URL.Query().Get("session"))
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade: %v", err)
		return
	}
	defer conn.Close()
	log.Printf("[WS] editor connected to session %s", session.ID)

	// Initial paint so a reconnecting client recovers its state.
	s.pushRender(conn, session, "")

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[WS] session %s read: %v", session.ID, err)
			}
			return
		}
		s.dispatch(conn, session, msg)
	}
}

// dispatch turns a client message into a command, applies it, and replies.
func (s *Server) dispatch(conn *websocket.Conn, session *Session, msg clientMessage) {
	cmd, err := decodeCommand(msg)
	if err != nil {
		writeMessage(conn, errorMessage{Type: "error", Message: err.Error()})
		return
	}

	var result mopage.Result
	var rejected error
	session.With(func(doc *mopage.Document) {
		if err := validateCommand(doc, cmd); err != nil {
			rejected = err
			return
		}
		result = mopage.Apply(doc, cmd)
	})
	if rejected != nil {
		writeMessage(conn, errorMessage{Type: "error", Message: rejected.Error()})
		return
	}

	if result.NeedsConfirmation {
		writeMessage(conn, confirmMessage{
			Type:       "confirm",
			Prompt:     result.Prompt,
			Redispatch: confirmedCopy(msg),
		})
		return
	}
	if !result.Changed && !result.SelectionChanged {
		return
	}

	scrollTo := ""
	if result.Added != nil {
		scrollTo = result.Added.ID
	}
	s.pushRender(conn, session, scrollTo)
}

// pushRender sends the full canvas plus the selection's property fields.
func (s *Server) pushRender(conn *websocket.Conn, session *Session, scrollTo string) {
	var out renderMessage
	session.With(func(doc *mopage.Document) {
		fields := mopage.Fields(doc.Selected())
		if fields == nil {
			fields = []mopage.Field{}
		}
		out = renderMessage{
			Type:       "render",
			HTML:       mopage.RenderPage(doc),
			SelectedID: doc.SelectedID(),
			Fields:     fields,
			ScrollTo:   scrollTo,
		}
	})
	writeMessage(conn, out)
}

// decodeCommand maps the wire message onto a typed command, validating
// URL-carrying fields before they reach the document.
func decodeCommand(msg clientMessage) (mopage.Command, error) {
	switch msg.Type {
	case "addBlock":
		var c mopage.AddBlockCmd
		if err := json.Unmarshal(msg.Payload, &c); err != nil {
			return nil, errors.New("malformed addBlock payload")
		}
		return c, nil
	case "deleteBlock":
		var c mopage.DeleteBlockCmd
		if err := json.Unmarshal(msg.Payload, &c); err != nil {
			return nil, errors.New("malformed deleteBlock payload")
		}
		return c, nil
	case "moveBlock":
		var c mopage.MoveBlockCmd
		if err := json.Unmarshal(msg.Payload, &c); err != nil {
			return nil, errors.New("malformed moveBlock payload")
		}
		return c, nil
	case "selectBlock":
		var c mopage.SelectBlockCmd
		if err := json.Unmarshal(msg.Payload, &c); err != nil {
			return nil, errors.New("malformed selectBlock payload")
		}
		return c, nil
	case "updateField":
		var c mopage.UpdateFieldCmd
		if err := json.Unmarshal(msg.Payload, &c); err != nil {
			return nil, errors.New("malformed updateField payload")
		}
		return c, nil
	case "pushArrayItem":
		var c mopage.PushArrayItemCmd
		if err := json.Unmarshal(msg.Payload, &c); err != nil {
			return nil, errors.New("malformed pushArrayItem payload")
		}
		if src, ok := c.Value.(string); ok {
			if err := security.ValidateImageSource(src); err != nil {
				return nil, err
			}
		}
		return c, nil
	case "removeArrayItem":
		var c mopage.RemoveArrayItemCmd
		if err := json.Unmarshal(msg.Payload, &c); err != nil {
			return nil, errors.New("malformed removeArrayItem payload")
		}
		return c, nil
	case "setTitle":
		var c mopage.SetTitleCmd
		if err := json.Unmarshal(msg.Payload, &c); err != nil {
			return nil, errors.New("malformed setTitle payload")
		}
		return c, nil
	case "setPageStyle":
		var c mopage.SetPageStyleCmd
		if err := json.Unmarshal(msg.Payload, &c); err != nil {
			return nil, errors.New("malformed setPageStyle payload")
		}
		return c, nil
	}
	return nil, errors.New("unknown command " + msg.Type)
}

// validateCommand applies URL checks to the fields that end up as hrefs,
// srcs or embeds on a public page. Validation needs the document because
// the "content" path means a URL for image and video blocks but plain
// text everywhere else.
func validateCommand(doc *mopage.Document, cmd mopage.Command) error {
	c, ok := cmd.(mopage.UpdateFieldCmd)
	if !ok {
		return nil
	}
	str, ok := c.Value.(string)
	if !ok {
		return nil
	}
	switch c.Path {
	case "link", "content.url":
		return security.ValidateLinkURL(str)
	case "content":
		b := doc.Block(c.ID)
		if b == nil {
			return nil
		}
		switch b.Type {
		case mopage.BlockVideo:
			return security.ValidateLinkURL(str)
		case mopage.BlockImage:
			return security.ValidateImageSource(str)
		}
	}
	return nil
}

// confirmedCopy rewrites a command payload with confirmed set, for the
// confirmation round trip.
func confirmedCopy(msg clientMessage) clientMessage {
	var payload map[string]any
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		payload = map[string]any{}
	}
	payload["confirmed"] = true
	raw, _ := json.Marshal(payload)
	return clientMessage{Type: msg.Type, Payload: raw}
}

func writeMessage(conn *websocket.Conn, v any) {
	if err := conn.WriteJSON(v); err != nil {
		log.Printf("[WS] write: %v", err)
	}
}

// viewerMessage is a slide position push to the viewer.
type viewerMessage struct {
	Type    string `json:"type"`
	BlockID string `json:"blockId"`
	Index   int    `json:"index"`
}

// navigateMessage is a manual slide navigation from the viewer.
type navigateMessage struct {
	Type    string `json:"type"`
	BlockID string `json:"blockId"`
	Step    int    `json:"step"`
}

// handleViewSocket runs one viewer connection: the carousel runner for
// this session pushes slide advances; manual navigation comes back in.
func (s *Server) handleViewSocket(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	page, err := s.store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}
	doc := mopage.NewDocument(page.Title, page.Author, mopage.Category(page.Category), "")
	if err := doc.DecodeBody(page.Data); err != nil {
		http.Error(w, "page not viewable", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade: %v", err)
		return
	}
	defer conn.Close()

	// Gorilla connections allow one concurrent writer; the runner fires
	// from its own goroutine.
	var writeMu sync.Mutex
	runner := carousel.NewRunner(func(blockID string, index int) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(viewerMessage{Type: "slide", BlockID: blockID, Index: index}); err != nil {
			log.Printf("[WS] viewer push: %v", err)
		}
	})
	for _, b := range doc.Blocks {
		if b.Type != mopage.BlockSlide {
			continue
		}
		if sc, ok := b.Content.(mopage.SlideContent); ok {
			runner.Track(b.ID, len(sc.Images),
				time.Duration(sc.DurationSeconds*float64(time.Second)))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Run(ctx)

	for {
		var msg navigateMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == "navigate" && (msg.Step == 1 || msg.Step == -1) {
			runner.Advance(msg.BlockID, msg.Step)
		}
	}
}
