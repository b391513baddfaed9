package devstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mopage/mopage/internal/store"
)

const maxRequestSize = 10 * 1024 * 1024

// Handler serves the store contract over one endpoint: query actions
// (list, get) as GETs with query parameters, mutations (verify, save,
// delete) as JSON POSTs, all answered with a {status, message, data, id}
// envelope whose data value is inline JSON. The client in internal/store
// is its reference consumer.
type Handler struct {
	backend Backend
}

// NewHandler wraps a backend in the contract handler.
func NewHandler(backend Backend) *Handler {
	return &Handler{backend: backend}
}

// request is the union of every action's parameters.
type request struct {
	Action   string `json:"action"`
	ID       string `json:"id"`
	Password string `json:"password"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category"`
	Data     string `json:"data"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req = request{Action: q.Get("action"), ID: q.Get("id")}
	case http.MethodPost:
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestSize)).Decode(&req); err != nil {
			h.fail(w, "malformed request")
			return
		}
	default:
		h.fail(w, "unsupported method")
		return
	}
	log.Printf("[DevStore] %s action=%s id=%s", r.Method, req.Action, req.ID)

	switch {
	case r.Method == http.MethodGet && req.Action == "list":
		h.list(w, r)
	case r.Method == http.MethodGet && req.Action == "get":
		h.get(w, r, req)
	case r.Method == http.MethodPost && req.Action == "verify":
		h.verify(w, r, req)
	case r.Method == http.MethodPost && req.Action == "save":
		h.save(w, r, req)
	case r.Method == http.MethodPost && req.Action == "delete":
		h.delete(w, r, req)
	default:
		h.fail(w, fmt.Sprintf("unknown action %q for %s", req.Action, r.Method))
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	records, err := h.backend.List(r.Context())
	if err != nil {
		log.Printf("[DevStore] list failed: %v", err)
		h.fail(w, "storage error")
		return
	}
	summaries := make([]store.Summary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, summaryOf(rec))
	}
	h.succeedData(w, summaries)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, req request) {
	rec, err := h.lookup(w, r.Context(), req.ID)
	if rec == nil || err != nil {
		return
	}
	h.succeedData(w, store.Page{Summary: summaryOf(*rec), Data: rec.Data})
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request, req request) {
	rec, err := h.lookup(w, r.Context(), req.ID)
	if rec == nil || err != nil {
		return
	}
	if !CheckPassword(req.Password, rec.PasswordHash) {
		h.fail(w, "wrong password")
		return
	}
	h.succeed(w, "")
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, req request) {
	if req.Title == "" {
		h.fail(w, "title is required")
		return
	}
	if len(req.Password) < store.MinCredentialLen {
		h.fail(w, fmt.Sprintf("password must be at least %d characters", store.MinCredentialLen))
		return
	}
	if len(req.Data) > store.MaxDataChars {
		h.fail(w, fmt.Sprintf("data exceeds %d characters", store.MaxDataChars))
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	} else {
		// Overwriting an existing page requires its credential.
		existing, err := h.backend.Get(r.Context(), id)
		if err != nil && !errors.Is(err, ErrNotFound) {
			log.Printf("[DevStore] save lookup failed: %v", err)
			h.fail(w, "storage error")
			return
		}
		if existing != nil && !CheckPassword(req.Password, existing.PasswordHash) {
			h.fail(w, "wrong password")
			return
		}
	}

	rec := Record{
		ID:           id,
		Title:        req.Title,
		Author:       req.Author,
		Category:     req.Category,
		PasswordHash: HashPassword(req.Password),
		Data:         req.Data,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := h.backend.Upsert(r.Context(), rec); err != nil {
		log.Printf("[DevStore] save failed: %v", err)
		h.fail(w, "storage error")
		return
	}
	h.respond(w, envelope{Status: "success", ID: id})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, req request) {
	rec, err := h.lookup(w, r.Context(), req.ID)
	if rec == nil || err != nil {
		return
	}
	if !CheckPassword(req.Password, rec.PasswordHash) {
		h.fail(w, "wrong password")
		return
	}
	if err := h.backend.Delete(r.Context(), rec.ID); err != nil {
		log.Printf("[DevStore] delete failed: %v", err)
		h.fail(w, "storage error")
		return
	}
	h.succeed(w, "page deleted")
}

// lookup resolves an id to a record, writing the failure envelope itself
// when the page is missing.
func (h *Handler) lookup(w http.ResponseWriter, ctx context.Context, id string) (*Record, error) {
	if id == "" {
		h.fail(w, "id is required")
		return nil, nil
	}
	rec, err := h.backend.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		h.fail(w, "page not found")
		return nil, nil
	}
	if err != nil {
		log.Printf("[DevStore] get %s failed: %v", id, err)
		h.fail(w, "storage error")
		return nil, err
	}
	return rec, nil
}

func summaryOf(rec Record) store.Summary {
	return store.Summary{
		ID:        rec.ID,
		Title:     rec.Title,
		Author:    rec.Author,
		Category:  rec.Category,
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	ID      string          `json:"id,omitempty"`
}

func (h *Handler) succeed(w http.ResponseWriter, message string) {
	h.respond(w, envelope{Status: "success", Message: message})
}

// succeedData embeds the payload as the envelope's inline data value. A
// page's own body stays a JSON-encoded string inside that value; only the
// envelope level is inline.
func (h *Handler) succeedData(w http.ResponseWriter, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.fail(w, "encoding error")
		return
	}
	h.respond(w, envelope{Status: "success", Data: raw})
}

func (h *Handler) fail(w http.ResponseWriter, message string) {
	h.respond(w, envelope{Status: "error", Message: message})
}

func (h *Handler) respond(w http.ResponseWriter, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Printf("[DevStore] write response failed: %v", err)
	}
}
