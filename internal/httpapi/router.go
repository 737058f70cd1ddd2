package httpapi

import (
	"context"
	"net/http"
	"strings"
	"vigil-backend/internal/profiles"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// ProfileService is the part of *profiles.Service the http surface depends on.
type ProfileService interface {
	TokenVerifier
	List(ctx context.Context, input profiles.ListInput, maxPerPage int) (profiles.ListResult, error)
	Find(ctx context.Context, id int64) (profiles.Profile, error)
	Create(ctx context.Context, input profiles.Input) (profiles.SaveResult, error)
	Rescan(ctx context.Context, id int64) (profiles.RescanResult, error)
	ResolveShortCode(ctx context.Context, code string) (string, error)
}

type Options struct {
	// PublicBaseUrl is prepended to short links, eg. "https://vigil.example.com".
	PublicBaseUrl string
}

type handler struct {
	service ProfileService
	baseUrl string
}

func NewRouter(service ProfileService, opts Options) http.Handler {
	h := handler{
		service: service,
		baseUrl: strings.TrimRight(opts.PublicBaseUrl, "/"),
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(requestLogger)
	router.Use(chimiddleware.Recoverer)

	router.Get("/p/{code}", h.redirect)

	router.Route("/api", func(r chi.Router) {
		r.Use(requireToken(service))
		r.Get("/profiles", h.listProfiles)
		r.Post("/profiles", h.createProfile)
		r.Get("/profiles/{id}", h.showProfile)
		r.Post("/profiles/{id}/rescan", h.rescanProfile)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "not found")
	})

	return router
}

func (h handler) redirect(w http.ResponseWriter, r *http.Request) {
	url, err := h.service.ResolveShortCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}
