package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// CookieOptions are the attributes of a single Set-Cookie header. A nil
// MaxAge produces a session cookie.
type CookieOptions struct {
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
	Path     string
	Domain   string
	MaxAge   *int
}

// CookiePolicy holds the security attributes shared by both auth cookies.
type CookiePolicy struct {
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

// ParseSameSite maps Strict, Lax or None (case-insensitive) to its
// http.SameSite value.
func ParseSameSite(raw string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "strict":
		return http.SameSiteStrictMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("invalid SameSite value %q: expected Strict, Lax or None", raw)
	}
}

// SerializeCookie renders one Set-Cookie header value. The value is
// percent-encoded; when MaxAge is set an absolute Expires of now+MaxAge is
// emitted next to Max-Age.
func SerializeCookie(name string, value string, opts CookieOptions, now time.Time) string {
	path := opts.Path
	if path == "" {
		path = "/"
	}

	cookie := &http.Cookie{
		Name:     name,
		Value:    encodeCookieValue(value),
		Path:     path,
		Domain:   opts.Domain,
		HttpOnly: opts.HTTPOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}

	if opts.MaxAge != nil {
		maxAge := *opts.MaxAge
		cookie.Expires = now.Add(time.Duration(maxAge) * time.Second).UTC()
		if maxAge > 0 {
			cookie.MaxAge = maxAge
		} else {
			// net/http renders a negative MaxAge as "Max-Age=0".
			cookie.MaxAge = -1
		}
	}

	return cookie.String()
}

// CookieTransport writes and clears the access and refresh token cookies.
type CookieTransport struct {
	policy        CookiePolicy
	accessMaxAge  *int
	refreshMaxAge *int
	now           func() time.Time
}

// NewCookieTransport derives cookie lifetimes from the configured token expiry
// strings. An expiry ParseMaxAge cannot read yields a session cookie.
func NewCookieTransport(policy CookiePolicy, accessExpiresIn string, refreshExpiresIn string) *CookieTransport {
	return &CookieTransport{
		policy:        policy,
		accessMaxAge:  maxAgeFromExpiry(accessExpiresIn),
		refreshMaxAge: maxAgeFromExpiry(refreshExpiresIn),
		now:           time.Now,
	}
}

// AuthCookieHeaders returns the two Set-Cookie values for a token pair.
func (t *CookieTransport) AuthCookieHeaders(accessToken string, refreshToken string) []string {
	now := t.now()
	return []string{
		SerializeCookie(AccessTokenCookie, accessToken, t.options(t.accessMaxAge), now),
		SerializeCookie(RefreshTokenCookie, refreshToken, t.options(t.refreshMaxAge), now),
	}
}

func (t *CookieTransport) SetAuthCookies(w http.ResponseWriter, accessToken string, refreshToken string) {
	for _, header := range t.AuthCookieHeaders(accessToken, refreshToken) {
		w.Header().Add("Set-Cookie", header)
	}
}

// ClearAuthCookies expires both auth cookies on the client.
func (t *CookieTransport) ClearAuthCookies(w http.ResponseWriter) {
	now := t.now()
	zero := 0
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		w.Header().Add("Set-Cookie", SerializeCookie(name, "", t.options(&zero), now))
	}
}

func (t *CookieTransport) options(maxAge *int) CookieOptions {
	return CookieOptions{
		HTTPOnly: true,
		Secure:   t.policy.Secure,
		SameSite: t.policy.SameSite,
		Path:     "/",
		Domain:   t.policy.Domain,
		MaxAge:   maxAge,
	}
}

func maxAgeFromExpiry(raw string) *int {
	seconds, ok := ParseMaxAge(raw)
	if !ok {
		return nil
	}
	return &seconds
}

// AuthCookies holds the auth token values found in a Cookie header.
type AuthCookies struct {
	AccessToken  string
	RefreshToken string
	HasAccess    bool
	HasRefresh   bool
}

// ExtractAuthCookies reads the access and refresh tokens from a raw Cookie
// header. Fragments without a name or with an undecodable value are skipped.
func ExtractAuthCookies(cookieHeader string) AuthCookies {
	cookies := parseCookieHeader(cookieHeader)

	var out AuthCookies
	out.AccessToken, out.HasAccess = cookies[AccessTokenCookie]
	out.RefreshToken, out.HasRefresh = cookies[RefreshTokenCookie]
	return out
}

func parseCookieHeader(header string) map[string]string {
	cookies := map[string]string{}
	if strings.TrimSpace(header) == "" {
		return cookies
	}

	for _, fragment := range strings.Split(header, ";") {
		rawName, rawValue, _ := strings.Cut(fragment, "=")
		name := strings.TrimSpace(rawName)
		if name == "" {
			continue
		}

		value, err := decodeCookieValue(strings.TrimSpace(rawValue))
		if err != nil {
			continue
		}
		cookies[name] = value
	}

	return cookies
}

// encodeCookieValue escapes like encodeURIComponent: spaces become %20, never +.
func encodeCookieValue(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

func decodeCookieValue(value string) (string, error) {
	return url.PathUnescape(value)
}

