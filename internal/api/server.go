// Package api exposes recipes, recommendations and photos over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"smartcook/internal/auth"
	"smartcook/internal/logging"
	"smartcook/internal/photos"
	"smartcook/internal/recipes"
	"smartcook/internal/recommend"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the API serves. Recommender may be nil.
type Deps struct {
	Auth        auth.Authenticator
	Recipes     *recipes.Service
	Photos      *photos.Service
	Recommender *recommend.Recommender
	DB          Pinger
	Logger      *zap.Logger
}

// Server routes HTTP requests to the services.
type Server struct {
	Deps
	log *zap.Logger
	now func() time.Time
}

// NewServer creates a Server. A nil Logger disables request logging.
func NewServer(d Deps) *Server {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{Deps: d, log: log, now: time.Now}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(s.Auth, s.unauthorized))

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", s.listRecipes)
			r.Post("/", s.createRecipe)
			r.Post("/recommend", s.recommend)
			r.Get("/{id}", s.getRecipe)
			r.Put("/{id}", s.updateRecipe)
			r.Delete("/{id}", s.deleteRecipe)
		})

		r.Route("/photos", func(r chi.Router) {
			r.Get("/", s.getPhotos)
			r.Post("/", s.savePhoto)
			r.Patch("/", s.movePhoto)
			r.Delete("/", s.deletePhoto)
			r.Get("/upload-url", s.uploadURL)
			r.Get("/signed-url", s.signedURL)
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		elapsed := s.now().Sub(start)

		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())))
		logging.APIDebug("%s %s -> %d (%v)", r.Method, r.URL.Path, ww.Status(), elapsed)
	})
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	logging.Audit(logging.AuditAuthReject, "", r.URL.Path, false, err.Error())
	if !errors.Is(err, auth.ErrUnauthenticated) {
		s.log.Warn("authentication error", zap.Error(err))
	}
	writeJSON(w, http.StatusUnauthorized, errorBody("Unauthorized"))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		if err := s.DB.Ping(r.Context()); err != nil {
			s.log.Error("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func userID(r *http.Request) string {
	id, _ := auth.UserFrom(r.Context())
	return id
}
