package session

import (
	"net/http"
	"strings"

	"workspots/internal/pkg/jwt"
	"workspots/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const stateKey = "session"

type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// Middleware resolves the bearer identity on every request. A missing or
// invalid token yields a signed-out state, never an error.
func Middleware(tokens TokenValidator, resolver *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := State{}
		if raw := bearerToken(c); raw != "" {
			if claims, err := tokens.ValidateToken(raw); err == nil {
				state = resolver.Resolve(c.Request.Context(), claims.IdentityID)
			}
		}

		c.Set(stateKey, state)
		if state.Identity != nil {
			c.Set("identity_id", state.Identity.ID)
			c.Set("identity", state.Identity)
		}
		if state.Profile != nil {
			c.Set("profile", state.Profile)
		}
		c.Next()
	}
}

// FromGin returns the state stored by Middleware.
func FromGin(c *gin.Context) State {
	if v, ok := c.Get(stateKey); ok {
		if s, ok := v.(State); ok {
			return s
		}
	}
	return State{}
}

// RequirePage aborts requests the page gate does not allow.
func RequirePage(page Page) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := FromGin(c).Allow(page)
		switch d.Outcome {
		case OutcomeAllow:
			c.Next()
			return
		case OutcomeRedirect:
			status, code := http.StatusUnauthorized, "UNAUTHORIZED"
			if d.Redirect == RedirectBanned {
				status, code = http.StatusForbidden, "ACCOUNT_BANNED"
			}
			response.Redirect(c, status, code, "Access to this page is not allowed", d.Redirect)
		case OutcomeDenied:
			response.CustomError(c, http.StatusForbidden, "ACCESS_DENIED", "Access denied")
		default:
			response.CustomError(c, http.StatusServiceUnavailable, "SESSION_PENDING", "Session is still resolving")
		}
		c.Abort()
	}
}

// RequireIdentity only needs someone signed in.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !FromGin(c).SignedIn() {
			response.Redirect(c, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", RedirectUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	// browsers cannot set headers on WebSocket upgrades
	if websocketUpgrade(c.Request) {
		return c.Query("access_token")
	}
	return ""
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
