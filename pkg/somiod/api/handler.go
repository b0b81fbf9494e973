// Package api exposes the somiod resource directory over HTTP. Resources are
// addressed by their canonical hierarchical paths; discovery is selected with
// the somiod-discovery header, which handlers map to a typed kind before
// touching the service.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/somiod/pkg/somiod"
)

// DiscoveryHeader names the child resource kind a discovery GET enumerates.
const DiscoveryHeader = "somiod-discovery"

// Handler handles HTTP requests for the resource directory
type Handler struct {
	service somiod.Service
}

// NewHandler creates a new resource directory handler
func NewHandler(service somiod.Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the routes for the resource directory
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.DiscoverApplications)
	r.Post("/", h.CreateApplication)

	r.Route("/{appName}", func(r chi.Router) {
		r.Get("/", h.GetApplication)
		r.Put("/", h.UpdateApplication)
		r.Delete("/", h.DeleteApplication)
		r.Post("/", h.CreateContainer)

		r.Route("/{containerName}", func(r chi.Router) {
			r.Get("/", h.GetContainer)
			r.Put("/", h.UpdateContainer)
			r.Delete("/", h.DeleteContainer)
			r.Post("/", h.CreateResource)

			r.Get("/subs/{subName}", h.GetSubscription)
			r.Delete("/subs/{subName}", h.DeleteSubscription)

			r.Get("/{ciName}", h.GetContentInstance)
			r.Delete("/{ciName}", h.DeleteContentInstance)
		})
	})

	return r
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Fields []somiod.FieldError `json:"fields,omitempty"`
}

// renderError maps service errors to the CRUD status contract. Categories
// only; no internal detail leaves the server.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := somiod.StatusFromError(err)

	resp := ErrorResponse{Error: http.StatusText(status)}
	var ve *somiod.ValidationError
	if errors.As(err, &ve) {
		resp.Fields = ve.Fields
	}
	if status == http.StatusInternalServerError {
		resp.Error = "internal error"
	} else {
		resp.Error = err.Error()
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}

func wireTime(t time.Time) string {
	return t.UTC().Format(somiod.WireTimeFormat)
}

// discoveryKind extracts the typed discovery kind from the request, if the
// discovery header is present. ok distinguishes "no header" from "bad value".
func discoveryKind(r *http.Request) (kind somiod.DiscoveryKind, present, ok bool) {
	marker := r.Header.Get(DiscoveryHeader)
	if marker == "" {
		return 0, false, false
	}
	kind, valid := somiod.ParseDiscoveryKind(marker)
	return kind, true, valid
}

func renderPaths(w http.ResponseWriter, r *http.Request, paths []string) {
	if paths == nil {
		paths = []string{}
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, paths)
}

func badDiscoveryMarker(w http.ResponseWriter, r *http.Request) {
	renderError(w, r, &somiod.ValidationError{Fields: []somiod.FieldError{{
		Field:   DiscoveryHeader,
		Message: "unknown discovery kind",
	}}})
}
