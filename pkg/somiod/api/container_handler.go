package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/somiod/pkg/somiod"
)

// CreateContainerRequest is the request body for creating a container
type CreateContainerRequest struct {
	ResourceName string `json:"resourceName"`
}

// UpdateContainerRequest is the request body for renaming a container
type UpdateContainerRequest struct {
	ResourceName string `json:"resourceName"`
}

// ContainerResponse is the response body for a container
type ContainerResponse struct {
	ResourceName            string `json:"resourceName"`
	ApplicationResourceName string `json:"applicationResourceName"`
	CreationDatetime        string `json:"creationDatetime"`
	ResType                 string `json:"resType"`
	Path                    string `json:"path,omitempty"`
}

func containerResponse(c *somiod.Container, withPath bool) ContainerResponse {
	resp := ContainerResponse{
		ResourceName:            c.ResourceName,
		ApplicationResourceName: c.ApplicationResourceName,
		CreationDatetime:        wireTime(c.CreationDatetime),
		ResType:                 string(c.ResType),
	}
	if withPath {
		resp.Path = somiod.ContainerPath(c.ApplicationResourceName, c.ResourceName)
	}
	return resp
}

// CreateContainer creates a new container inside an application
func (h *Handler) CreateContainer(w http.ResponseWriter, r *http.Request) {
	appName := chi.URLParam(r, "appName")

	var req CreateContainerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	container, err := h.service.CreateContainer(r.Context(), somiod.CreateContainerRequest{
		ApplicationName: appName,
		ResourceName:    req.ResourceName,
	})
	if err != nil {
		slog.Error("failed to create container", "application", appName, "error", err)
		renderError(w, r, err)
		return
	}

	slog.Info("container created", "application", appName, "container", container.ResourceName)
	w.Header().Set("Location", somiod.ContainerPath(appName, container.ResourceName))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, containerResponse(container, true))
}

// GetContainer fetches one container, or discovers its subscriptions when
// the discovery header selects them.
func (h *Handler) GetContainer(w http.ResponseWriter, r *http.Request) {
	appName := chi.URLParam(r, "appName")
	containerName := chi.URLParam(r, "containerName")

	if kind, present, ok := discoveryKind(r); present {
		if !ok || kind != somiod.DiscoverSubscriptions {
			badDiscoveryMarker(w, r)
			return
		}
		paths, err := h.service.Discover(r.Context(), kind, appName, containerName)
		if err != nil {
			renderError(w, r, err)
			return
		}
		renderPaths(w, r, paths)
		return
	}

	container, err := h.service.GetContainer(r.Context(), appName, containerName)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, containerResponse(container, false))
}

// UpdateContainer renames a container
func (h *Handler) UpdateContainer(w http.ResponseWriter, r *http.Request) {
	appName := chi.URLParam(r, "appName")
	containerName := chi.URLParam(r, "containerName")

	var req UpdateContainerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	container, err := h.service.RenameContainer(r.Context(), somiod.RenameContainerRequest{
		ApplicationName: appName,
		CurrentName:     containerName,
		NewName:         req.ResourceName,
	})
	if err != nil {
		slog.Error("failed to rename container",
			"application", appName, "container", containerName, "error", err)
		renderError(w, r, err)
		return
	}

	slog.Info("container renamed",
		"application", appName, "from", containerName, "to", container.ResourceName)
	render.JSON(w, r, containerResponse(container, false))
}

// DeleteContainer deletes a container and its content instances and
// subscriptions
func (h *Handler) DeleteContainer(w http.ResponseWriter, r *http.Request) {
	appName := chi.URLParam(r, "appName")
	containerName := chi.URLParam(r, "containerName")

	if err := h.service.DeleteContainer(r.Context(), appName, containerName); err != nil {
		renderError(w, r, err)
		return
	}

	slog.Info("container deleted", "application", appName, "container", containerName)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"status": "deleted"})
}
