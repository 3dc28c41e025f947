package auth

// Identity is the caller attached to a request after its access token has
// been verified. It lives for one request and is never persisted.
type Identity struct {
	UserID string
	Email  string
	Role   Role
	Claims Claims
}

func IdentityFromClaims(claims Claims) Identity {
	return Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
		Claims: claims,
	}
}
