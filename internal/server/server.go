// Package server serves a family tree over HTTP.
//
// # Endpoints
//
//	GET    /healthz                      liveness
//	GET    /metrics                      Prometheus metrics
//	GET    /api/tree                     members and connections
//	GET    /api/members                  list members
//	POST   /api/members                  create a member
//	GET    /api/members/{id}             one member
//	PUT    /api/members/{id}             replace a member
//	DELETE /api/members/{id}             delete a member and its connections
//	GET    /api/members/{id}/relation    relationship to the self member
//	GET    /api/members/{id}/family      immediate family
//	GET    /api/connections              list connections
//	POST   /api/connections              create a connection
//	PUT    /api/connections/{id}         replace a connection
//	DELETE /api/connections/{id}         delete a connection
//	GET    /api/render.svg               the canvas as SVG
//	GET    /api/render.dot               Graphviz source
//	GET    /ws                           live canvas session (WebSocket)
//
// Read endpoints accept ?zh=true to return localized names and labels.
//
// # Live canvas
//
// Each WebSocket connection owns a canvas.Controller. The client sends
// pointer and form events as JSON; after every event the server answers with
// a frame holding the render model and the open form. When any session or
// REST call changes the tree, every other session reloads and receives a
// fresh frame.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/kinboard/pkg/buildinfo"
	"github.com/matzehuels/kinboard/pkg/cache"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
	"github.com/matzehuels/kinboard/pkg/observability"
)

const (
	shutdownTimeout = 10 * time.Second
	renderCacheSize = 64
	renderCacheTTL  = time.Hour
)

// Options configures a Server.
type Options struct {
	// CardSize is the member card size. Zero means the canvas default.
	CardSize geometry.Size

	// Localize makes localized names the default for reads and sessions.
	Localize bool

	// Locked starts new canvas sessions in view-only mode.
	Locked bool

	// Gatherer serves /metrics. Nil means prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Cache holds rendered documents. Nil means a small in-memory cache.
	Cache cache.Cache

	Logger *log.Logger
}

// Server is the HTTP front end of one family.Service.
type Server struct {
	svc    *family.Service
	opts   Options
	logger *log.Logger
	hub    *hub
}

// New returns a server over svc.
func New(svc *family.Service, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemoryCache(renderCacheSize)
	}
	return &Server{
		svc:    svc,
		opts:   opts,
		logger: opts.Logger,
		hub:    newHub(),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", s.serveCanvas)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tree", s.getTree)
		r.Get("/render.svg", s.renderSVG)
		r.Get("/render.dot", s.renderDOT)

		r.Route("/members", func(r chi.Router) {
			r.Get("/", s.listMembers)
			r.Post("/", s.createMember)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getMember)
				r.Put("/", s.updateMember)
				r.Delete("/", s.deleteMember)
				r.Get("/relation", s.getRelation)
				r.Get("/family", s.getFamily)
			})
		})

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", s.listConnections)
			r.Post("/", s.createConnection)
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", s.updateConnection)
				r.Delete("/", s.deleteConnection)
			})
		})
	})
	return r
}

// Notify tells every live session that the tree changed outside the server,
// e.g. when the store file was edited.
func (s *Server) Notify() {
	s.hub.broadcast(nil)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	s.hub.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// observe reports every request to the HTTP hooks, labelled with the
// matched route pattern rather than the raw path.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		observability.HTTP().OnRequest(r.Context(), r.Method, route, status, d)
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status, "duration", d.Round(time.Microsecond))
	})
}
