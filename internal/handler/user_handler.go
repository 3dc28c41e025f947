package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"crowdpulse-api/internal/model"
	"crowdpulse-api/internal/service"
	"crowdpulse-api/pkg/apierror"
)

type UserHandler struct {
	service *service.UserService
	audit   *service.AuditService
}

func NewUserHandler(service *service.UserService, audit *service.AuditService) *UserHandler {
	return &UserHandler{service: service, audit: audit}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(r)
	if !ok {
		writeError(w, apierror.Unauthorized("No logged user found"))
		return
	}

	user, err := h.service.Get(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Successfully retrieved logged user", user, nil)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Successfully retrieved users", users, nil)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(r)
	if !ok {
		writeError(w, apierror.Unauthorized("No logged user found"))
		return
	}

	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.ChangePasswordRequest
	if err := decodeJSON(w, r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.ChangePassword(r.Context(), identity, userID, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.audit.Log(r.Context(), model.AuditEntry{
		Action:   "user.password_changed",
		Actor:    actorFromRequest(r),
		Resource: user.ID,
	})
	writeSuccess(w, http.StatusOK, "Successfully changed the password of user", user, nil)
}

func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.ChangeRoleRequest
	if err := decodeJSON(w, r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.ChangeRole(r.Context(), userID, payload.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	h.audit.Log(r.Context(), model.AuditEntry{
		Action:   "user.role_changed",
		Actor:    actorFromRequest(r),
		Resource: user.ID,
		Detail:   map[string]any{"role": user.Role},
	})
	writeSuccess(w, http.StatusOK, "Successfully changed the role of user", user, nil)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(r)
	if !ok {
		writeError(w, apierror.Unauthorized("No logged user found"))
		return
	}

	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), identity, userID); err != nil {
		writeError(w, err)
		return
	}

	h.audit.Log(r.Context(), model.AuditEntry{
		Action:   "user.deleted",
		Actor:    actorFromRequest(r),
		Resource: userID,
	})
	writeSuccess(w, http.StatusOK, "Successfully deleted user", nil, nil)
}

func userIDParam(r *http.Request) (string, error) {
	return idParam(r, "id", "user not found")
}

// idParam reads a uuid path parameter in its canonical lower-case form.
// Malformed ids cannot exist, so they report notFound.
func idParam(r *http.Request, name string, notFound string) (string, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return "", apierror.NotFound(notFound)
	}
	return id.String(), nil
}
