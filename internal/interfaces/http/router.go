package http

import (
	"io/fs"
	"net/http"

	"github.com/pkondrashkov/gallery-api/internal/interfaces/http/handler"
	"github.com/pkondrashkov/gallery-api/internal/interfaces/http/middleware"
	"github.com/pkondrashkov/gallery-api/pkg/config"
	"github.com/pkondrashkov/gallery-api/pkg/logger"
)

// Router wires the application routes
type Router struct {
	mux               *http.ServeMux
	galleryAPIHandler *handler.GalleryAPIHandler
	websocketHandler  *handler.WebSocketHandler
	authAPIHandler    *handler.AuthAPIHandler
	rateLimiter       *middleware.IPRateLimiter
	security          config.SecurityConfig
	logger            *logger.Logger
}

// NewRouter creates a new router
func NewRouter(
	galleryAPIHandler *handler.GalleryAPIHandler,
	websocketHandler *handler.WebSocketHandler,
	authAPIHandler *handler.AuthAPIHandler,
	rateLimiter *middleware.IPRateLimiter,
	security config.SecurityConfig,
	logger *logger.Logger,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		galleryAPIHandler: galleryAPIHandler,
		websocketHandler:  websocketHandler,
		authAPIHandler:    authAPIHandler,
		rateLimiter:       rateLimiter,
		security:          security,
		logger:            logger,
	}
}

// Setup registers all routes and returns the wrapped handler
func (rt *Router) Setup() http.Handler {
	// Static assets are embedded into the binary.
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("failed to initialize embedded static assets: " + err.Error())
	}
	rt.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Health endpoints are intentionally unauthenticated for probes.
	rt.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	rt.mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	authMiddleware := middleware.Auth(middleware.AuthConfig{
		Enabled:     rt.security.AuthEnabled,
		BearerToken: rt.security.AuthToken,
	}, rt.logger)

	// Gallery UI
	rt.mux.HandleFunc("/", rt.serveIndex(staticFS))

	// WebSocket
	rt.mux.Handle("/ws", authMiddleware(http.HandlerFunc(rt.websocketHandler.HandleConnection)))

	// API endpoints
	rt.mux.HandleFunc("/api/v1/auth/login", rt.authAPIHandler.Login)
	rt.mux.HandleFunc("/api/v1/auth/logout", rt.authAPIHandler.Logout)
	rt.mux.HandleFunc("/api/v1/auth/status", rt.authAPIHandler.Status)

	imagesHandler := authMiddleware(http.HandlerFunc(rt.galleryAPIHandler.HandleImages))
	if rt.rateLimiter != nil {
		imagesHandler = middleware.RateLimit(rt.rateLimiter)(imagesHandler)
	}
	rt.mux.Handle("/api/v1/gallery/images", imagesHandler)
	rt.mux.Handle("/api/v1/gallery/uploads", authMiddleware(http.HandlerFunc(rt.galleryAPIHandler.HandleUploads)))

	// Apply middleware
	var handler http.Handler = rt.mux
	handler = middleware.Compression(handler)
	handler = middleware.Logger(rt.logger)(handler)
	handler = middleware.Recovery(rt.logger)(handler)

	return handler
}

// serveIndex serves the gallery page at the root path only.
func (rt *Router) serveIndex(staticFS fs.FS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		page, err := fs.ReadFile(staticFS, "index.html")
		if err != nil {
			rt.logger.Error("Failed to read index page", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}
}
