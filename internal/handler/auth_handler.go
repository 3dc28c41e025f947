package handler

import (
	"net/http"
	"strings"

	"crowdpulse-api/internal/auth"
	"crowdpulse-api/internal/middleware"
	"crowdpulse-api/internal/model"
	"crowdpulse-api/internal/service"
	"crowdpulse-api/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
	cookies *auth.CookieTransport
	audit   *service.AuditService
}

func NewAuthHandler(service *service.AuthService, cookies *auth.CookieTransport, audit *service.AuditService) *AuthHandler {
	return &AuthHandler{service: service, cookies: cookies, audit: audit}
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var payload model.SigninRequest
	if err := decodeJSON(w, r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Signin(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.audit.Log(r.Context(), model.AuditEntry{
			Action: "auth.signin",
			Actor:  model.AuditActor{Email: service.NormalizeEmail(payload.Email), IP: middleware.ClientIP(r)},
			Status: model.AuditStatusFailure,
			Error:  classifyError(err).Message,
		})
		writeError(w, err)
		return
	}

	h.audit.Log(r.Context(), model.AuditEntry{Action: "auth.signin", Actor: actorFromUser(r, result.User)})
	h.cookies.SetAuthCookies(w, result.AccessToken, result.RefreshToken)
	writeSuccess(w, http.StatusOK, "Signin successful", result, nil)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload model.SignupRequest
	if err := decodeJSON(w, r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Signup(r.Context(), model.SignupInput{
		FirstName:       payload.FirstName,
		LastName:        payload.LastName,
		Email:           payload.Email,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.audit.Log(r.Context(), model.AuditEntry{
		Action:   "auth.signup",
		Actor:    actorFromUser(r, result.User),
		Resource: result.User.ID,
	})
	h.cookies.SetAuthCookies(w, result.AccessToken, result.RefreshToken)
	writeSuccess(w, http.StatusCreated, "Signup successful", result, nil)
}

// Refresh takes the refresh token from the JSON body, falling back to the
// refreshToken cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := refreshTokenFromRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if token == "" {
		writeError(w, apierror.BadRequest("refresh token is required"))
		return
	}

	tokens, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.SetAuthCookies(w, tokens.AccessToken, tokens.RefreshToken)
	writeSuccess(w, http.StatusOK, "Token refresh successful", tokens, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := refreshTokenFromRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	subject, err := h.service.Logout(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	if subject != "" {
		h.audit.Log(r.Context(), model.AuditEntry{
			Action: "auth.logout",
			Actor:  model.AuditActor{UserID: subject, IP: middleware.ClientIP(r)},
		})
	}

	h.cookies.ClearAuthCookies(w)
	writeSuccess(w, http.StatusOK, "Logout successful", nil, nil)
}

func refreshTokenFromRequest(w http.ResponseWriter, r *http.Request) (string, error) {
	var payload model.RefreshRequest
	if err := decodeJSON(w, r, &payload, true); err != nil {
		return "", err
	}

	if token := strings.TrimSpace(payload.RefreshToken); token != "" {
		return token, nil
	}

	cookies := auth.ExtractAuthCookies(r.Header.Get("Cookie"))
	return strings.TrimSpace(cookies.RefreshToken), nil
}
