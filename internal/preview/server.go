// Package preview serves the built site locally with live reload, plus the
// watch daemon's health and metrics endpoints.
package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"

	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

const scriptTag = `<script src="/livereload.js"></script>`

// Options configures a Server.
type Options struct {
	// Status returns the JSON body of /healthz.
	Status func() any
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// Server serves one site root.
type Server struct {
	root       string
	router     *mux.Router
	hub        *Hub
	status     func() any
	errAdapter *foundationerrors.HTTPErrorAdapter
	started    time.Time
}

// New creates a preview server for the site at root.
func New(root string, opts Options) *Server {
	s := &Server{
		root:       root,
		router:     mux.NewRouter(),
		hub:        NewHub(),
		status:     opts.Status,
		errAdapter: foundationerrors.NewHTTPErrorAdapter(slog.Default()),
		started:    time.Now(),
	}

	s.router.Use(chain(s.errAdapter))
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if opts.Metrics != nil {
		s.router.Handle("/metrics", opts.Metrics).Methods(http.MethodGet)
	}
	s.router.Handle("/livereload", s.hub).Methods(http.MethodGet)
	s.router.HandleFunc("/livereload.js", handleScript).Methods(http.MethodGet)
	s.router.PathPrefix("/").HandlerFunc(s.handleSite).Methods(http.MethodGet, http.MethodHead)
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Reload tells connected browsers that version is now being served.
func (s *Server) Reload(version string) { s.hub.Broadcast(version) }

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return foundationerrors.NetworkError("failed to bind preview server").
			WithContext("addr", addr).
			WithCause(err).
			Build()
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("Preview server listening", logfields.URL("http://"+ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		s.hub.Shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.hub.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return foundationerrors.DaemonError("preview server shutdown failed").WithCause(err).Build()
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}
	if s.status != nil {
		body["daemon"] = s.status()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func handleScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(Script))
}

// handleSite serves files below root. HTML pages get the live reload script.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	target := filepath.Join(s.root, filepath.FromSlash(clean))

	info, err := os.Stat(target)
	if err == nil && info.IsDir() {
		target = filepath.Join(target, "index.html")
		info, err = os.Stat(target)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.errAdapter.WriteErrorResponse(w, r, foundationerrors.NotFoundError("page not found").
				WithContext("path", clean).
				Build())
			return
		}
		s.errAdapter.WriteErrorResponse(w, r, foundationerrors.FileSystemError("failed to read page").
			WithContext("path", clean).
			WithCause(err).
			Build())
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	if !strings.EqualFold(filepath.Ext(target), ".html") {
		http.ServeFile(w, r, target)
		return
	}

	data, err := os.ReadFile(target)
	if err != nil {
		s.errAdapter.WriteErrorResponse(w, r, foundationerrors.FileSystemError("failed to read page").
			WithContext("path", clean).
			WithCause(err).
			Build())
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), bytes.NewReader(InjectScript(data)))
}

// InjectScript adds the live reload script before </body>, or appends it when
// the page has no body end tag.
func InjectScript(page []byte) []byte {
	if bytes.Contains(page, []byte(scriptTag)) {
		return page
	}
	lower := bytes.ToLower(page)
	i := bytes.LastIndex(lower, []byte("</body>"))
	if i < 0 {
		return append(append([]byte(nil), page...), []byte(scriptTag)...)
	}
	out := make([]byte, 0, len(page)+len(scriptTag))
	out = append(out, page[:i]...)
	out = append(out, scriptTag...)
	return append(out, page[i:]...)
}
