package handler

import (
	"net/http"

	"crowdpulse-api/internal/auth"
	"crowdpulse-api/internal/middleware"
	"crowdpulse-api/internal/model"
)

func actorFromRequest(r *http.Request) model.AuditActor {
	actor := model.AuditActor{IP: middleware.ClientIP(r)}

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return actor
	}

	actor.UserID = identity.UserID
	actor.Email = identity.Email
	actor.Role = identity.Role.String()

	return actor
}

func actorFromUser(r *http.Request, user model.PublicUser) model.AuditActor {
	return model.AuditActor{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role.String(),
		IP:     middleware.ClientIP(r),
	}
}

func requireIdentity(r *http.Request) (auth.Identity, bool) {
	return middleware.IdentityFromContext(r.Context())
}
