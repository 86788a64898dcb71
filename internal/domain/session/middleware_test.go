package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"workspots/internal/domain/auth"
	"workspots/internal/domain/profile"
	"workspots/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, p *profile.Profile) (*gin.Engine, string) {
	t.Helper()
	ctx := context.Background()
	tokens := jwt.New("secret", time.Minute)

	profiles := newProfiles(t, nil)
	if p != nil {
		require.NoError(t, profiles.Create(ctx, p))
	}
	ids := &mockIdentities{}
	ids.On("Reload", mock.Anything, "u1").Return(&auth.Identity{ID: "u1", EmailVerified: true}, nil)

	r := gin.New()
	r.Use(Middleware(tokens, NewResolver(ids, profiles)))
	NewHandler().RegisterRoutes(&r.RouterGroup)
	r.GET("/submit", RequirePage(PageSubmission), func(c *gin.Context) { c.String(http.StatusOK, c.GetString("identity_id")) })
	r.GET("/admin", RequirePage(PageAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	token, err := tokens.GenerateToken("u1", "a@b.c", true, nil)
	require.NoError(t, err)
	return r, token
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Details struct {
			Redirect string `json:"redirect"`
		} `json:"details"`
	} `json:"error"`
}

func TestRequirePage_SignedOutRedirects(t *testing.T) {
	r, _ := newRouter(t, nil)

	w := do(r, "/submit", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, RedirectUnauthorized, body.Error.Details.Redirect)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/submit", "not-a-jwt").Code)
}

func TestRequirePage_Member(t *testing.T) {
	r, token := newRouter(t, profile.New("u1", "a@b.c", "Ann", "", profile.VerificationYes))

	w := do(r, "/submit", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	w = do(r, "/admin", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ACCESS_DENIED", body.Error.Code)
}

func TestRequirePage_Banned(t *testing.T) {
	p := profile.New("u1", "a@b.c", "Ann", "", profile.VerificationYes)
	p.IsBanned = true
	r, token := newRouter(t, p)

	w := do(r, "/submit", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, RedirectBanned, body.Error.Details.Redirect)
}

func TestSessionEndpoint(t *testing.T) {
	p := profile.New("u1", "a@b.c", "Ann", "", profile.VerificationYes)
	p.IsAdmin = true
	r, token := newRouter(t, p)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/session", "").Code)

	w := do(r, "/session", token)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			Decisions map[Page]Decision `json:"decisions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, OutcomeAllow, body.Data.Decisions[PageAdmin].Outcome)
}
