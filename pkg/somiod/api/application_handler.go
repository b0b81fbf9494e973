package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/somiod/pkg/somiod"
)

// CreateApplicationRequest is the request body for creating an application.
// resourceName may be omitted to auto-generate one.
type CreateApplicationRequest struct {
	ResourceName string `json:"resourceName"`
}

// UpdateApplicationRequest is the request body for renaming an application
type UpdateApplicationRequest struct {
	ResourceName string `json:"resourceName"`
}

// ApplicationResponse is the response body for an application
type ApplicationResponse struct {
	ResourceName     string `json:"resourceName"`
	CreationDatetime string `json:"creationDatetime"`
	ResType          string `json:"resType"`
	Path             string `json:"path,omitempty"`
}

func applicationResponse(app *somiod.Application, withPath bool) ApplicationResponse {
	resp := ApplicationResponse{
		ResourceName:     app.ResourceName,
		CreationDatetime: wireTime(app.CreationDatetime),
		ResType:          string(app.ResType),
	}
	if withPath {
		resp.Path = somiod.ApplicationPath(app.ResourceName)
	}
	return resp
}

// DiscoverApplications lists canonical application paths. The discovery
// header is mandatory at the root; there is no resource to fetch here.
func (h *Handler) DiscoverApplications(w http.ResponseWriter, r *http.Request) {
	kind, present, ok := discoveryKind(r)
	if !present {
		http.NotFound(w, r)
		return
	}
	if !ok || kind != somiod.DiscoverApplications {
		badDiscoveryMarker(w, r)
		return
	}

	paths, err := h.service.Discover(r.Context(), kind, "", "")
	if err != nil {
		slog.Error("application discovery failed", "error", err)
		renderError(w, r, err)
		return
	}
	renderPaths(w, r, paths)
}

// CreateApplication creates a new application
func (h *Handler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var req CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	app, err := h.service.CreateApplication(r.Context(), somiod.CreateApplicationRequest{
		ResourceName: req.ResourceName,
	})
	if err != nil {
		slog.Error("failed to create application", "error", err)
		renderError(w, r, err)
		return
	}

	slog.Info("application created", "application", app.ResourceName)
	w.Header().Set("Location", somiod.ApplicationPath(app.ResourceName))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, applicationResponse(app, true))
}

// GetApplication fetches one application, or discovers its children when the
// discovery header selects container or content-instance.
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	appName := chi.URLParam(r, "appName")

	if kind, present, ok := discoveryKind(r); present {
		if !ok || (kind != somiod.DiscoverContainers && kind != somiod.DiscoverContentInstances) {
			badDiscoveryMarker(w, r)
			return
		}
		paths, err := h.service.Discover(r.Context(), kind, appName, "")
		if err != nil {
			renderError(w, r, err)
			return
		}
		renderPaths(w, r, paths)
		return
	}

	app, err := h.service.GetApplication(r.Context(), appName)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, applicationResponse(app, false))
}

// UpdateApplication renames an application
func (h *Handler) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	appName := chi.URLParam(r, "appName")

	var req UpdateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	app, err := h.service.RenameApplication(r.Context(), somiod.RenameApplicationRequest{
		CurrentName: appName,
		NewName:     req.ResourceName,
	})
	if err != nil {
		slog.Error("failed to rename application", "application", appName, "error", err)
		renderError(w, r, err)
		return
	}

	slog.Info("application renamed", "from", appName, "to", app.ResourceName)
	render.JSON(w, r, applicationResponse(app, false))
}

// DeleteApplication deletes an application and every descendant
func (h *Handler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	appName := chi.URLParam(r, "appName")

	if err := h.service.DeleteApplication(r.Context(), appName); err != nil {
		renderError(w, r, err)
		return
	}

	slog.Info("application deleted", "application", appName)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"status": "deleted"})
}
