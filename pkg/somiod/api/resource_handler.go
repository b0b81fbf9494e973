package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/somiod/pkg/somiod"
)

// CreateResourceRequest is the request body for POST under a container. The
// resType field selects whether a content-instance or a subscription is
// created; the remaining fields apply to the matching kind.
type CreateResourceRequest struct {
	ResType      string `json:"resType"`
	ResourceName string `json:"resourceName"`

	// content-instance fields
	ContentType string `json:"contentType,omitempty"`
	Content     string `json:"content,omitempty"`

	// subscription fields
	Evt      somiod.EventCode `json:"evt,omitempty"`
	Endpoint string           `json:"endpoint,omitempty"`
}

// ContentInstanceResponse is the response body for a content instance
type ContentInstanceResponse struct {
	ResourceName            string `json:"resourceName"`
	ContainerResourceName   string `json:"containerResourceName"`
	ApplicationResourceName string `json:"applicationResourceName"`
	CreationDatetime        string `json:"creationDatetime"`
	ResType                 string `json:"resType"`
	ContentType             string `json:"contentType"`
	Content                 string `json:"content"`
	Path                    string `json:"path,omitempty"`
}

// SubscriptionResponse is the response body for a subscription
type SubscriptionResponse struct {
	ResourceName            string           `json:"resourceName"`
	ContainerResourceName   string           `json:"containerResourceName"`
	ApplicationResourceName string           `json:"applicationResourceName"`
	CreationDatetime        string           `json:"creationDatetime"`
	ResType                 string           `json:"resType"`
	Evt                     somiod.EventCode `json:"evt"`
	Endpoint                string           `json:"endpoint"`
	Path                    string           `json:"path,omitempty"`
}

func contentInstanceResponse(ci *somiod.ContentInstance, withPath bool) ContentInstanceResponse {
	resp := ContentInstanceResponse{
		ResourceName:            ci.ResourceName,
		ContainerResourceName:   ci.ContainerResourceName,
		ApplicationResourceName: ci.ApplicationResourceName,
		CreationDatetime:        wireTime(ci.CreationDatetime),
		ResType:                 string(ci.ResType),
		ContentType:             ci.ContentType,
		Content:                 ci.Content,
	}
	if withPath {
		resp.Path = somiod.ContentInstancePath(
			ci.ApplicationResourceName, ci.ContainerResourceName, ci.ResourceName)
	}
	return resp
}

func subscriptionResponse(sub *somiod.Subscription, withPath bool) SubscriptionResponse {
	resp := SubscriptionResponse{
		ResourceName:            sub.ResourceName,
		ContainerResourceName:   sub.ContainerResourceName,
		ApplicationResourceName: sub.ApplicationResourceName,
		CreationDatetime:        wireTime(sub.CreationDatetime),
		ResType:                 string(sub.ResType),
		Evt:                     sub.Evt,
		Endpoint:                sub.Endpoint,
	}
	if withPath {
		resp.Path = somiod.SubscriptionPath(
			sub.ApplicationResourceName, sub.ContainerResourceName, sub.ResourceName)
	}
	return resp
}

// CreateResource creates a content instance or a subscription inside a
// container, discriminated by the resType body field.
func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	appName := chi.URLParam(r, "appName")
	containerName := chi.URLParam(r, "containerName")

	var req CreateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch somiod.ResourceType(req.ResType) {
	case somiod.ResourceTypeContentInstance:
		ci, err := h.service.CreateContentInstance(r.Context(), somiod.CreateContentInstanceRequest{
			ApplicationName: appName,
			ContainerName:   containerName,
			ResourceName:    req.ResourceName,
			ContentType:     req.ContentType,
			Content:         req.Content,
		})
		if err != nil {
			slog.Error("failed to create content instance",
				"application", appName, "container", containerName, "error", err)
			renderError(w, r, err)
			return
		}

		slog.Info("content instance created",
			"application", appName, "container", containerName, "instance", ci.ResourceName)
		w.Header().Set("Location", somiod.ContentInstancePath(appName, containerName, ci.ResourceName))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, contentInstanceResponse(ci, true))

	case somiod.ResourceTypeSubscription:
		sub, err := h.service.CreateSubscription(r.Context(), somiod.CreateSubscriptionRequest{
			ApplicationName: appName,
			ContainerName:   containerName,
			ResourceName:    req.ResourceName,
			Evt:             req.Evt,
			Endpoint:        req.Endpoint,
		})
		if err != nil {
			slog.Error("failed to create subscription",
				"application", appName, "container", containerName, "error", err)
			renderError(w, r, err)
			return
		}

		slog.Info("subscription created",
			"application", appName, "container", containerName, "subscription", sub.ResourceName)
		w.Header().Set("Location", somiod.SubscriptionPath(appName, containerName, sub.ResourceName))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, subscriptionResponse(sub, true))

	default:
		renderError(w, r, &somiod.ValidationError{Fields: []somiod.FieldError{{
			Field:   "resType",
			Message: "must be 'content-instance' or 'subscription'",
		}}})
	}
}

// GetContentInstance retrieves a content instance by name
func (h *Handler) GetContentInstance(w http.ResponseWriter, r *http.Request) {
	appName := chi.URLParam(r, "appName")
	containerName := chi.URLParam(r, "containerName")
	ciName := chi.URLParam(r, "ciName")

	ci, err := h.service.GetContentInstance(r.Context(), appName, containerName, ciName)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, contentInstanceResponse(ci, false))
}

// DeleteContentInstance deletes a content instance; matching subscribers are
// notified of the deletion.
func (h *Handler) DeleteContentInstance(w http.ResponseWriter, r *http.Request) {
	appName := chi.URLParam(r, "appName")
	containerName := chi.URLParam(r, "containerName")
	ciName := chi.URLParam(r, "ciName")

	if err := h.service.DeleteContentInstance(r.Context(), appName, containerName, ciName); err != nil {
		renderError(w, r, err)
		return
	}

	slog.Info("content instance deleted",
		"application", appName, "container", containerName, "instance", ciName)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"status": "deleted"})
}

// GetSubscription retrieves a subscription by name
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	appName := chi.URLParam(r, "appName")
	containerName := chi.URLParam(r, "containerName")
	subName := chi.URLParam(r, "subName")

	sub, err := h.service.GetSubscription(r.Context(), appName, containerName, subName)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, subscriptionResponse(sub, false))
}

// DeleteSubscription deletes a subscription
func (h *Handler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	appName := chi.URLParam(r, "appName")
	containerName := chi.URLParam(r, "containerName")
	subName := chi.URLParam(r, "subName")

	if err := h.service.DeleteSubscription(r.Context(), appName, containerName, subName); err != nil {
		renderError(w, r, err)
		return
	}

	slog.Info("subscription deleted",
		"application", appName, "container", containerName, "subscription", subName)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"status": "deleted"})
}
