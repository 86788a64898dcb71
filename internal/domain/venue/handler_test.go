package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"workspots/internal/domain/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

// router mounts the handler the way the api does; a nil identity leaves the
// request anonymous.
func (f *fixture) router(identity *auth.Identity) *gin.Engine {
	r := gin.New()
	g := r.Group("/", func(c *gin.Context) {
		if identity != nil {
			c.Set("identity_id", identity.ID)
			c.Set("identity", identity)
		}
		c.Next()
	})
	NewHandler(f.svc).RegisterRoutes(g, g)
	return r
}

type form struct {
	fields map[string][]string
	files  int
}

func (p form) encode(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range p.fields {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	for i := 1; i <= p.files; i++ {
		part, err := w.CreateFormFile("images", fmt.Sprintf("img%d", i))
		require.NoError(t, err)
		_, err = part.Write([]byte{0xff, 0xd8, byte(i)})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func validForm(files int) form {
	return form{
		fields: map[string][]string{
			"name":      {"Blue Bottle"},
			"address":   {"1 Main St"},
			"lat":       {"40.71"},
			"lng":       {"-74.0"},
			"amenities": {"wifi,powerSocket"},
		},
		files: files,
	}
}

func post(t *testing.T, r http.Handler, p form) (int, envelope) {
	t.Helper()
	body, contentType := p.encode(t)
	req := httptest.NewRequest(http.MethodPost, "/venues", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestHandler_SubmitAnonymousRedirectsToLogin(t *testing.T) {
	f := newFixture(t)

	code, env := post(t, f.router(nil), validForm(2))

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
	assert.Equal(t, "/login?reason=unauthorized", env.Error.Details["redirect"])
	assert.Empty(t, f.store.calls)
}

func TestHandler_SubmitStoresPendingWhateverStatusIsSent(t *testing.T) {
	f := newFixture(t)
	p := validForm(2)
	p.fields["status"] = []string{"approved"}

	code, env := post(t, f.router(alice), p)
	require.Equal(t, http.StatusCreated, code)

	var got Submitted
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, StatusPending, got.Status)
	assert.Empty(t, got.Notice)
	assert.Equal(t, AmenitySet{AmenityWifi, AmenityPowerSocket}, got.Amenities)

	stored, err := f.repo.GetByID(context.Background(), got.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Equal(t, []string{"img1", "img2"}, f.store.calls)
}

func TestHandler_SubmitKeepsFirstThreeImages(t *testing.T) {
	f := newFixture(t)

	code, env := post(t, f.router(alice), validForm(4))
	require.Equal(t, http.StatusCreated, code)

	var got Submitted
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, ErrTooManyImages.Error(), got.Notice)
	assert.Len(t, got.Images, MaxImages)
	assert.Equal(t, []string{"img1", "img2", "img3"}, f.store.calls)

	stored, err := f.repo.GetByID(context.Background(), got.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Images, MaxImages)
}

func TestHandler_SubmitRejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		edit     func(p form) form
		wantCode int
		wantErr  string
	}{
		{
			name:     "latitude not a number",
			edit:     func(p form) form { p.fields["lat"] = []string{"north"}; return p },
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "latitude out of range",
			edit:     func(p form) form { p.fields["lat"] = []string{"91"}; return p },
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "unknown amenity",
			edit:     func(p form) form { p.fields["amenities"] = []string{"sauna"}; return p },
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "no images",
			edit:     func(p form) form { p.files = 0; return p },
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "missing name",
			edit:     func(p form) form { delete(p.fields, "name"); return p },
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			code, env := post(t, f.router(alice), tt.edit(validForm(1)))

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantErr, env.Error.Code)
			assert.Empty(t, f.store.calls)

			mine, err := f.repo.ListByOwner(context.Background(), alice.ID)
			require.NoError(t, err)
			assert.Empty(t, mine)
		})
	}
}

func TestHandler_SubmitUploadFailure(t *testing.T) {
	f := newFixture(t)
	f.store.failAt = 2

	code, env := post(t, f.router(alice), validForm(3))

	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "IMAGE_UPLOAD_FAILED", env.Error.Code)
	mine, err := f.repo.ListByOwner(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestHandler_ListMine(t *testing.T) {
	f := newFixture(t)
	r := f.router(alice)
	code, _ := post(t, r, validForm(1))
	require.Equal(t, http.StatusCreated, code)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/me/venues", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var mine []*Venue
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, StatusPending, mine[0].Status)
}
