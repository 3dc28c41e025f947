package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestSerializeCookie(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("all attributes", func(t *testing.T) {
		header := SerializeCookie("accessToken", "abc", CookieOptions{
			HTTPOnly: true,
			Secure:   true,
			SameSite: http.SameSiteNoneMode,
			Path:     "/",
			Domain:   "example.com",
			MaxAge:   intPtr(900),
		}, now)

		assert.True(t, strings.HasPrefix(header, "accessToken=abc"))
		assert.Contains(t, header, "Path=/")
		assert.Contains(t, header, "Domain=example.com")
		assert.Contains(t, header, "Max-Age=900")
		assert.Contains(t, header, "Expires=Fri, 02 Jan 2026 03:19:05 GMT")
		assert.Contains(t, header, "HttpOnly")
		assert.Contains(t, header, "Secure")
		assert.Contains(t, header, "SameSite=None")
	})

	t.Run("session cookie", func(t *testing.T) {
		header := SerializeCookie("refreshToken", "abc", CookieOptions{SameSite: http.SameSiteLaxMode}, now)

		assert.Contains(t, header, "Path=/")
		assert.Contains(t, header, "SameSite=Lax")
		assert.NotContains(t, header, "Max-Age")
		assert.NotContains(t, header, "Expires")
		assert.NotContains(t, header, "HttpOnly")
		assert.NotContains(t, header, "Secure")
	})

	t.Run("zero max age expires immediately", func(t *testing.T) {
		header := SerializeCookie("accessToken", "", CookieOptions{MaxAge: intPtr(0)}, now)

		assert.True(t, strings.HasPrefix(header, "accessToken=;"))
		assert.Contains(t, header, "Max-Age=0")
		assert.Contains(t, header, "Expires=Fri, 02 Jan 2026 03:04:05 GMT")
	})

	t.Run("value is percent-encoded", func(t *testing.T) {
		header := SerializeCookie("accessToken", "a b;c=d", CookieOptions{}, now)
		assert.True(t, strings.HasPrefix(header, "accessToken=a%20b%3Bc%3Dd;"), header)
	})
}

func TestParseSameSite(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]http.SameSite{
		"Strict": http.SameSiteStrictMode,
		"lax":    http.SameSiteLaxMode,
		"NONE":   http.SameSiteNoneMode,
	} {
		got, err := ParseSameSite(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseSameSite("sometimes")
	assert.Error(t, err)
}

func TestCookieTransportRoundTrip(t *testing.T) {
	t.Parallel()

	transport := NewCookieTransport(CookiePolicy{SameSite: http.SameSiteLaxMode}, "15m", "7d")

	values := []string{
		"eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig",
		"with=equals==",
		"semi;colon",
		"  spaced value  ",
		"unicodé ✓",
	}

	for _, value := range values {
		rec := httptest.NewRecorder()
		transport.SetAuthCookies(rec, value, value+"-refresh")

		headers := rec.Header().Values("Set-Cookie")
		require.Len(t, headers, 2)

		pairs := make([]string, 0, len(headers))
		for _, header := range headers {
			pair, _, _ := strings.Cut(header, ";")
			pairs = append(pairs, pair)
		}

		got := ExtractAuthCookies(strings.Join(pairs, "; "))
		assert.True(t, got.HasAccess)
		assert.True(t, got.HasRefresh)
		assert.Equal(t, value, got.AccessToken, "value %q", value)
		assert.Equal(t, value+"-refresh", got.RefreshToken)
	}
}

func TestCookieTransportMaxAge(t *testing.T) {
	t.Parallel()

	transport := NewCookieTransport(CookiePolicy{Secure: true, SameSite: http.SameSiteNoneMode}, "15m", "7d")
	headers := transport.AuthCookieHeaders("a", "r")

	assert.Contains(t, headers[0], "Max-Age=900")
	assert.Contains(t, headers[1], "Max-Age=604800")
	for _, header := range headers {
		assert.Contains(t, header, "HttpOnly")
		assert.Contains(t, header, "Secure")
		assert.Contains(t, header, "SameSite=None")
	}

	session := NewCookieTransport(CookiePolicy{}, "1h30m", "later")
	for _, header := range session.AuthCookieHeaders("a", "r") {
		assert.NotContains(t, header, "Max-Age")
	}
}

func TestClearAuthCookies(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewCookieTransport(CookiePolicy{}, "15m", "7d").ClearAuthCookies(rec)

	headers := rec.Header().Values("Set-Cookie")
	require.Len(t, headers, 2)
	assert.True(t, strings.HasPrefix(headers[0], AccessTokenCookie+"=;"))
	assert.True(t, strings.HasPrefix(headers[1], RefreshTokenCookie+"=;"))
	for _, header := range headers {
		assert.Contains(t, header, "Max-Age=0")
		assert.Contains(t, header, "HttpOnly")
	}
}

func TestExtractAuthCookies(t *testing.T) {
	t.Parallel()

	t.Run("empty header", func(t *testing.T) {
		got := ExtractAuthCookies("")
		assert.False(t, got.HasAccess)
		assert.False(t, got.HasRefresh)
	})

	t.Run("skips malformed fragments", func(t *testing.T) {
		got := ExtractAuthCookies("=orphan; theme=dark; accessToken=%E0%A4%A; refreshToken=r1; ;")
		assert.False(t, got.HasAccess)
		assert.True(t, got.HasRefresh)
		assert.Equal(t, "r1", got.RefreshToken)
	})

	t.Run("value keeps later equals signs", func(t *testing.T) {
		got := ExtractAuthCookies("accessToken=a=b=c")
		assert.True(t, got.HasAccess)
		assert.Equal(t, "a=b=c", got.AccessToken)
	})

	t.Run("name without value", func(t *testing.T) {
		got := ExtractAuthCookies("accessToken")
		assert.True(t, got.HasAccess)
		assert.Equal(t, "", got.AccessToken)
	})
}
