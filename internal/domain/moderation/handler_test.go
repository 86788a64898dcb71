package moderation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"workspots/internal/changefeed"
	"workspots/internal/domain/profile"
	"workspots/internal/domain/session"
	"workspots/internal/domain/venue"
	"workspots/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

type harness struct {
	router   *gin.Engine
	venues   venue.Repository
	profiles profile.Repository
	accounts *mockAccounts
	feed     *changefeed.MemoryBroker
}

func newHarness(t *testing.T, actor *profile.Profile) *harness {
	t.Helper()
	feed := changefeed.NewMemoryBroker()
	t.Cleanup(func() { _ = feed.Close() })

	places, venues, _ := newPlaces(t)
	users, profiles, accounts, _ := newUsers(t, feed)
	accounts.On("RevokeSessions", mock.Anything, mock.Anything).Return(nil).Maybe()
	if actor != nil {
		stored := *actor
		seedProfiles(t, profiles, &stored)
	}
	sessions := session.NewContexts(session.NewResolver(verifiedIdentities{}, profiles), nil, feed)

	hub := realtime.NewHub(nil, nil)
	t.Cleanup(hub.Close)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if actor != nil {
			c.Set("identity_id", actor.ID)
			c.Set("profile", actor)
		}
		c.Next()
	})
	NewHandler(places, users, hub, feed, sessions).RegisterRoutes(r.Group("/admin"), r.Group("/ws"))
	return &harness{router: r, venues: venues, profiles: profiles, accounts: accounts, feed: feed}
}

func (h *harness) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func TestHandler_PlacesFlow(t *testing.T) {
	h := newHarness(t, admin)
	seedVenues(t, h.venues,
		&venue.Venue{ID: "p", Name: "Pending Cafe", Address: "1 St"},
		&venue.Venue{ID: "q", Name: "Other", Address: "2 St"},
	)

	code, env := h.do(t, http.MethodGet, "/admin/places?q=cafe", "")
	require.Equal(t, http.StatusOK, code)
	var page Page[PlaceRow]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Rows, 1)
	assert.Equal(t, []string{ActionApprove, ActionReject, ActionEdit, ActionDelete}, page.Rows[0].Actions)

	code, _ = h.do(t, http.MethodPost, "/admin/places/p/approve", "")
	assert.Equal(t, http.StatusOK, code)

	code, env = h.do(t, http.MethodPost, "/admin/places/p/reject", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "NOT_PENDING", env.Error.Code)

	code, env = h.do(t, http.MethodPatch, "/admin/places/q", `{"amenities":"wifi, jacuzzi"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, _ = h.do(t, http.MethodDelete, "/admin/places/q", "")
	assert.Equal(t, http.StatusOK, code)
	code, env = h.do(t, http.MethodDelete, "/admin/places/q", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "PLACE_NOT_FOUND", env.Error.Code)
}

func TestHandler_UsersRequireAdmin(t *testing.T) {
	h := newHarness(t, &profile.Profile{ID: "m"})

	code, env := h.do(t, http.MethodGet, "/admin/users", "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "ACCESS_DENIED", env.Error.Code)
}

func TestHandler_UserFlags(t *testing.T) {
	h := newHarness(t, admin)
	seedProfiles(t, h.profiles, &profile.Profile{ID: "u1", Email: "ann@example.com", DisplayName: "ann"})

	code, _ := h.do(t, http.MethodPatch, "/admin/users/u1/ban", `{"value":true}`)
	assert.Equal(t, http.StatusOK, code)

	code, env := h.do(t, http.MethodPatch, "/admin/users/admin/admin", `{"value":false}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "SELF_TARGET", env.Error.Code)

	code, _ = h.do(t, http.MethodPatch, "/admin/users/u1/admin", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	p, err := h.profiles.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, p.IsBanned)
}

func TestUsersStream_PushesChanges(t *testing.T) {
	h := newHarness(t, admin)
	seedProfiles(t, h.profiles,
		&profile.Profile{ID: "u1", Email: "ann@example.com", DisplayName: "ann"},
		&profile.Profile{ID: "u2", Email: "bob@example.com", DisplayName: "bob"},
	)

	srv := httptest.NewServer(h.router)
	defer srv.Close()
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/admin/users", nil)
	require.NoError(t, err)
	defer ws.Close()

	next := func() Page[UserRow] {
		t.Helper()
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg struct {
			Type    string        `json:"type"`
			Payload Page[UserRow] `json:"payload"`
		}
		require.NoError(t, ws.ReadJSON(&msg))
		require.Equal(t, "users", msg.Type)
		return msg.Payload
	}

	assert.Equal(t, 3, next().Total, "two members and the admin")

	require.NoError(t, h.profiles.Update(context.Background(), "u2", map[string]any{"display_name": "robert"}))
	renamed := func(p Page[UserRow]) bool {
		for _, r := range p.Rows {
			if r.ID == "u2" && r.DisplayName == "robert" {
				return true
			}
		}
		return false
	}
	seen := false
	for i := 0; i < 5 && !seen; i++ {
		seen = renamed(next())
	}
	assert.True(t, seen, "rename was not pushed")

	require.NoError(t, ws.WriteJSON(map[string]any{"type": "search", "data": map[string]string{"term": "ann"}}))
	page := next()
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "u1", page.Rows[0].ID)
}

func TestPlacesStream_ActionsAndErrors(t *testing.T) {
	h := newHarness(t, admin)
	seedVenues(t, h.venues,
		&venue.Venue{ID: "p", Name: "Pending Cafe", Address: "1 St"},
		&venue.Venue{ID: "q", Name: "Other", Address: "2 St"},
	)

	srv := httptest.NewServer(h.router)
	defer srv.Close()
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/admin/places", nil)
	require.NoError(t, err)
	defer ws.Close()

	type message struct {
		Type    string         `json:"type"`
		Payload Page[PlaceRow] `json:"payload"`
		Code    string         `json:"code"`
	}
	next := func() message {
		t.Helper()
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg message
		require.NoError(t, ws.ReadJSON(&msg))
		return msg
	}
	send := func(typ string, data any) {
		t.Helper()
		require.NoError(t, ws.WriteJSON(map[string]any{"type": typ, "data": data}))
	}

	first := next()
	require.Equal(t, "places", first.Type)
	assert.Equal(t, 2, first.Payload.Total)

	send("approve", map[string]string{"id": "p"})
	msg := next()
	require.Equal(t, "places", msg.Type)
	for _, r := range msg.Payload.Rows {
		if r.ID == "p" {
			assert.Equal(t, venue.StatusApproved, r.Status)
			assert.NotContains(t, r.Actions, ActionApprove)
		}
	}

	send("approve", map[string]string{"id": "p"})
	msg = next()
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "NOT_PENDING", msg.Code)

	send("delete", map[string]string{"id": "q"})
	msg = next()
	require.Equal(t, "places", msg.Type)
	assert.Equal(t, 1, msg.Payload.Total)

	stored, err := h.venues.GetByID(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, venue.StatusApproved, stored.Status)
}

func TestUsersStream_EndsWhenActorLosesAdmin(t *testing.T) {
	h := newHarness(t, admin)
	seedProfiles(t, h.profiles, &profile.Profile{ID: "u1", Email: "ann@example.com", DisplayName: "ann"})

	srv := httptest.NewServer(h.router)
	defer srv.Close()
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/admin/users", nil)
	require.NoError(t, err)
	defer ws.Close()

	type message struct {
		Type string `json:"type"`
		Code string `json:"code"`
	}
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var first message
	require.NoError(t, ws.ReadJSON(&first))
	require.Equal(t, "users", first.Type)

	require.NoError(t, h.profiles.Update(context.Background(), admin.ID, map[string]any{"is_admin": false}))

	denied := false
	for i := 0; i < 5 && !denied; i++ {
		var msg message
		require.NoError(t, ws.ReadJSON(&msg))
		denied = msg.Type == "error" && msg.Code == "ACCESS_DENIED"
	}
	require.True(t, denied, "demoted admin was not told")

	_ = ws.WriteJSON(map[string]any{"type": "set_admin", "data": map[string]any{"id": "u1", "value": true}})
	closed := false
	for i := 0; i < 5 && !closed; i++ {
		var msg message
		closed = ws.ReadJSON(&msg) != nil
	}
	assert.True(t, closed, "stream stayed open after demotion")

	target, err := h.profiles.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, target.IsAdmin)
}

func TestStreams_RefuseNonAdminBeforeUpgrade(t *testing.T) {
	h := newHarness(t, &profile.Profile{ID: "m"})
	srv := httptest.NewServer(h.router)
	defer srv.Close()

	for _, path := range []string{"/ws/admin/users", "/ws/admin/places"} {
		_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+path, nil)
		require.Error(t, err, path)
		require.NotNil(t, resp, path)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
	}
}

func TestHandler_DeleteMissingUser(t *testing.T) {
	h := newHarness(t, admin)
	h.accounts.On("DeleteIdentity", mock.Anything, "ghost").Return(profile.ErrProfileNotFound)

	code, env := h.do(t, http.MethodDelete, "/admin/users/ghost", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "USER_NOT_FOUND", env.Error.Code)
}
