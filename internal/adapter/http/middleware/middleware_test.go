package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/logging"
)

type stubParser map[string]domain.Identity

func (p stubParser) Parse(raw string) (domain.Identity, error) {
	id, ok := p[raw]
	if !ok {
		return domain.Identity{}, errors.New("bad token")
	}
	return id, nil
}

func newEngine(authz *Authz) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Logging(logging.New("test")))
	r.POST("/echo", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(b))
	})
	r.GET("/admin", authz.Require(domain.RoleAdmin), func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.UserID)
	})
	return r
}

func TestRequire(t *testing.T) {
	authz := NewAuthz(stubParser{
		"a": {UserID: "u-admin", Role: domain.RoleAdmin},
		"c": {UserID: "u-cust", Role: domain.RoleCustomer},
	})
	r := newEngine(authz)

	cases := []struct {
		name, header string
		want         int
		body         string
	}{
		{"missing", "", http.StatusUnauthorized, "No token"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "No token"},
		{"invalid", "Bearer zzz", http.StatusUnauthorized, "Invalid token"},
		{"wrong role", "Bearer c", http.StatusForbidden, "Wrong user type"},
		{"ok", "Bearer a", http.StatusOK, "u-admin"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
			assert.Contains(t, w.Body.String(), tc.body)
		})
	}
}

func TestLogging_KeepsBodyAndSetsRequestID(t *testing.T) {
	r := newEngine(NewAuthz(stubParser{}))
	payload := `{"email":"a@b.c","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, payload, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestLogging_RejectsOversizedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reached := false
	r := gin.New()
	r.Use(Logging(logging.New("test")))
	r.POST("/echo", func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})

	payload := `{"note":"` + strings.Repeat("a", MaxRequestBody) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "Request body too large")
	assert.False(t, reached)
}

func TestLogging_NonJSONBodyIsNotBuffered(t *testing.T) {
	r := newEngine(NewAuthz(stubParser{}))
	payload := strings.Repeat("b", MaxRequestBody+10)
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(payload))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, len(payload), w.Body.Len())
}

func TestForLog(t *testing.T) {
	big := []byte(`{"password":"hunter2","blob":"` + strings.Repeat("x", 2*logBodyLimit) + `"}`)
	orig := bytes.Clone(big)
	out := forLog(big)
	assert.NotContains(t, out, "hunter2")
	assert.True(t, strings.HasSuffix(out, truncatedMark))
	assert.Equal(t, orig, big)
}

func TestRedactJSON(t *testing.T) {
	out := string(redactJSON([]byte(`{"password":"x","nested":{"token":"y"},"email":"e"}`)))
	assert.NotContains(t, out, `"x"`)
	assert.NotContains(t, out, `"y"`)
	assert.Contains(t, out, `"email":"e"`)
}
