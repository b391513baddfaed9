// Package server hosts the page editor and viewer over HTTP. The editor
// holds documents server-side and drives them over a WebSocket command
// channel; the viewer serves rendered pages and live slide updates.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/mopage/mopage"
	"github.com/mopage/mopage/internal/assets"
	"github.com/mopage/mopage/internal/cache"
	"github.com/mopage/mopage/internal/config"
	"github.com/mopage/mopage/internal/store"
)

// Server wires the document core to its HTTP surface.
type Server struct {
	cfg       *config.Config
	store     *store.Client
	templates *mopage.TemplateRegistry
	listCache *cache.SummaryCache
	sessions  *sessionStore

	httpServer *http.Server
	watcher    *Watcher
	cancelBG   context.CancelFunc
}

// New builds a server from configuration. The store client is the only
// hard dependency; template directory and watcher are optional.
func New(cfg *config.Config) (*Server, error) {
	client, err := store.New(cfg.Store.Endpoint, cfg.Store.GetTimeout())
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	registry := mopage.NewTemplateRegistry()
	if dir := cfg.Templates.Dir; dir != "" {
		for _, err := range registry.LoadDir(dir) {
			log.Printf("[Server] template load: %v", err)
		}
	}

	return &Server{
		cfg:       cfg,
		store:     client,
		templates: registry,
		listCache: cache.New(cfg.List.GetCacheTTL()),
		sessions:  newSessionStore(0),
	}, nil
}

// Start serves until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	bgCtx, cancel := context.WithCancel(ctx)
	s.cancelBG = cancel

	rateLimit, _ := RateLimitMiddleware(bgCtx,
		float64(s.cfg.Server.GetRateLimit()), s.cfg.Server.GetRateBurst(), 0)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/edit", s.handleEditor)
	mux.HandleFunc("/view", s.handleViewer)
	mux.HandleFunc("/ws/edit", s.handleEditSocket)
	mux.HandleFunc("/ws/view", s.handleViewSocket)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(assets.StaticFS()))))

	api := http.NewServeMux()
	api.HandleFunc("/api/templates", s.handleTemplates)
	api.HandleFunc("/api/projects", s.handleProjects)
	api.HandleFunc("/api/pages/new", s.handleNewPage)
	api.HandleFunc("/api/verify", s.handleVerify)
	api.HandleFunc("/api/save", s.handleSave)
	api.HandleFunc("/api/delete", s.handleDelete)
	api.HandleFunc("/api/upload", s.handleUpload)
	mux.Handle("/api/", rateLimit(api))

	if s.cfg.Templates.ShouldWatch() {
		watcher, err := NewWatcher(s.cfg.Templates.Dir, func() {
			for _, err := range s.templates.LoadDir(s.cfg.Templates.Dir) {
				log.Printf("[Watch] template reload: %v", err)
			}
			log.Printf("[Watch] templates reloaded")
		})
		if err != nil {
			log.Printf("[Server] template watcher unavailable: %v", err)
		} else {
			s.watcher = watcher
			s.watcher.Start()
		}
	}

	go s.reapSessions(bgCtx)

	s.httpServer = &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           SecurityHeadersMiddleware()(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("[Server] listening on http://%s", s.cfg.Server.Addr())
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server and its background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancelBG != nil {
		s.cancelBG()
	}
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			log.Printf("[Server] watcher stop: %v", err)
		}
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) reapSessions(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Reap(); n > 0 {
				log.Printf("[Server] reaped %d stale sessions", n)
			}
		}
	}
}

// handleRoot serves the landing page. A bare "/" shows the project list
// and template chooser; "/?id=x" is the legacy viewer URL and forwards to
// /view.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if id := r.URL.Query().Get("id"); id != "" {
		http.Redirect(w, r, "/view?id="+template.URLQueryEscaper(id), http.StatusFound)
		return
	}
	s.renderPage(w, homeTmpl, map[string]any{
		"Templates": s.templates.List(),
	})
}

// handleEditor serves the editor shell for an existing session.
func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessions.Get(r.URL.Query().Get("session"))
	if !ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	var data map[string]any
	session.With(func(doc *mopage.Document) {
		data = map[string]any{
			"SessionID":  session.ID,
			"Title":      doc.Title,
			"Background": doc.Global.BackgroundColor,
			"CanvasHTML": template.HTML(mopage.RenderPage(doc)),
			"BlockTypes": mopage.BlockTypes(),
		}
	})
	s.renderPage(w, editorTmpl, data)
}

// handleViewer serves a published page read-only.
func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	page, err := s.store.Get(r.Context(), id)
	if err != nil {
		log.Printf("[Server] viewer load %s: %v", id, err)
		status := http.StatusBadGateway
		var notFoundErr *store.NotFoundError
		if errors.As(err, &notFoundErr) {
			status = http.StatusNotFound
		}
		s.renderPageStatus(w, status, errorTmpl, map[string]any{
			"Message": store.UserFriendlyMessage(err),
		})
		return
	}

	doc := mopage.NewDocument(page.Title, page.Author, mopage.Category(page.Category), "")
	if err := doc.DecodeBody(page.Data); err != nil {
		log.Printf("[Server] viewer decode %s: %v", id, err)
		s.renderPageStatus(w, http.StatusInternalServerError, errorTmpl, map[string]any{
			"Message": "This page could not be displayed.",
		})
		return
	}

	s.renderPage(w, viewerTmpl, map[string]any{
		"PageID":   id,
		"Title":    page.Title,
		"PageHTML": template.HTML(mopage.RenderPage(doc)),
	})
}

func (s *Server) renderPage(w http.ResponseWriter, tmpl *template.Template, data any) {
	s.renderPageStatus(w, http.StatusOK, tmpl, data)
}

func (s *Server) renderPageStatus(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		log.Printf("[Server] render %s: %v", tmpl.Name(), err)
	}
}

var homeTmpl = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>mopage</title>
<link rel="stylesheet" href="/static/editor.css">
</head>
<body>
<main class="editor-layout">
  <section class="panel">
    <h1>mopage</h1>
    <h2>Start a new page</h2>
    <form method="POST" action="/api/pages/new">
      <label>Template</label>
      <select name="template">
        {{range .Templates}}<option value="{{.Name}}">{{.Label}}</option>{{end}}
      </select>
      <label>Title</label><input name="title" required>
      <label>Author</label><input name="author">
      <label>Category</label>
      <select name="category">
        <option value="team">Team</option>
        <option value="personal">Personal</option>
      </select>
      <label>Password (4+ characters)</label>
      <input name="password" type="password" minlength="4" required>
      <button type="submit">Create</button>
    </form>
    <h2>Open an existing page</h2>
    <form method="POST" action="/api/verify">
      <label>Page ID</label><input name="id" required>
      <label>Password</label><input name="password" type="password" required>
      <button type="submit">Open</button>
    </form>
    <p><a href="/api/projects">Browse all pages</a></p>
  </section>
</main>
</body>
</html>`))

var editorTmpl = template.Must(template.New("editor").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} — mopage editor</title>
<link rel="stylesheet" href="/static/editor.css">
</head>
<body data-session="{{.SessionID}}">
<main class="editor-layout">
  <aside class="toolbar">
    {{range .BlockTypes}}<button data-add-type="{{.}}">{{.}}</button>{{end}}
  </aside>
  <section class="canvas-frame" id="canvas">{{.CanvasHTML}}</section>
  <aside class="panel">
    <label>Page title</label>
    <input id="page-title" value="{{.Title}}">
    <label>Page background</label>
    <input id="page-bg" type="color" value="{{if .Background}}{{.Background}}{{else}}#ffffff{{end}}">
    <hr>
    <div id="panel"></div>
    <hr>
    <label>Password</label>
    <input id="save-password" type="password" minlength="4">
    <button id="save-btn">Save &amp; publish</button>
    <div id="share-links"></div>
    <p id="status"></p>
  </aside>
</main>
<script src="/static/editor.js"></script>
</body>
</html>`))

var viewerTmpl = template.Must(template.New("viewer").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<link rel="stylesheet" href="/static/editor.css">
</head>
<body data-page="{{.PageID}}">
{{.PageHTML}}
<script src="/static/viewer.js"></script>
</body>
</html>`))

var errorTmpl = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>mopage</title></head>
<body><p>{{.Message}}</p><p><a href="/">Back to start</a></p></body>
</html>`))
