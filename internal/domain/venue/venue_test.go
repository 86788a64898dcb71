package venue

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"workspots/internal/domain/auth"
	"workspots/internal/geo"
	"workspots/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	failAt int // 1-based; 0 never fails
	calls  []string
}

func (s *recordingStore) StoreImage(_ context.Context, ownerID, prefix, name string, _ []byte) (string, error) {
	s.calls = append(s.calls, name)
	if s.failAt == len(s.calls) {
		return "", errors.New("network down")
	}
	return fmt.Sprintf("/static/uploads/%s/%s/%s.jpg", prefix, ownerID, name), nil
}

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) Resolve(ctx context.Context, address string) (geo.Place, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(geo.Place), args.Error(1)
}

type countingObserver map[string]int

func (o countingObserver) ObserveSubmission(result string) { o[result]++ }

func ptr(f float64) *float64 { return &f }

func images(n int) []Image {
	out := make([]Image, n)
	for i := range out {
		out[i] = Image{Name: fmt.Sprintf("img%d", i+1), Data: []byte{byte(i)}}
	}
	return out
}

func validInput() SubmissionInput {
	return SubmissionInput{
		Name:      "Blue Bottle",
		Address:   "1 Main St",
		Lat:       ptr(40.71),
		Lng:       ptr(-74.0),
		Amenities: []string{"wifi", "powerSocket"},
		Images:    images(2),
	}
}

type fixture struct {
	svc      *SubmissionService
	repo     Repository
	store    *recordingStore
	geocoder *mockGeocoder
	observed countingObserver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t, &Venue{})
	f := &fixture{
		repo:     NewRepository(db, nil),
		store:    &recordingStore{},
		geocoder: &mockGeocoder{},
		observed: countingObserver{},
	}
	f.svc = NewSubmissionService(f.repo, f.store, f.geocoder, f.observed)
	return f
}

var alice = &auth.Identity{ID: "alice"}

func TestSubmit_AlwaysPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validInput()
	in.Status = string(StatusApproved)
	v, err := f.svc.Submit(ctx, alice, in)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, v.Status)
	assert.Equal(t, "alice", v.UserID)
	assert.Equal(t, []string{"img1", "img2"}, f.store.calls)
	assert.Equal(t, ImageList{
		"/static/uploads/places/alice/img1.jpg",
		"/static/uploads/places/alice/img2.jpg",
	}, v.Images)

	stored, err := f.repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Equal(t, AmenitySet{AmenityWifi, AmenityPowerSocket}, stored.Amenities)
	assert.Equal(t, 1, f.observed["accepted"])
}

func TestSubmit_UnauthenticatedUploadsNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), nil, validInput())
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Empty(t, f.store.calls)
	assert.Equal(t, 1, f.observed["unauthenticated"])
}

func TestSubmit_ValidationHasNoSideEffects(t *testing.T) {
	cases := []struct {
		name string
		edit func(*SubmissionInput)
		want error
	}{
		{"short name", func(in *SubmissionInput) { in.Name = "A" }, ErrNameRequired},
		{"markup only name", func(in *SubmissionInput) { in.Name = "<b></b>" }, ErrNameRequired},
		{"short address", func(in *SubmissionInput) { in.Address = " " }, ErrAddressRequired},
		{"no images", func(in *SubmissionInput) { in.Images = nil }, ErrNoImages},
		{"four images", func(in *SubmissionInput) { in.Images = images(4) }, ErrTooManyImages},
		{"unknown amenity", func(in *SubmissionInput) { in.Amenities = []string{"pool"} }, ErrUnknownAmenity},
		{"half coordinates", func(in *SubmissionInput) { in.Lng = nil }, ErrInvalidCoordinates},
		{"bad latitude", func(in *SubmissionInput) { in.Lat = ptr(123) }, ErrInvalidCoordinates},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			in := validInput()
			tc.edit(&in)

			_, err := f.svc.Submit(context.Background(), alice, in)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, f.store.calls)

			all, err := f.repo.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestSubmit_FirstUploadFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.store.failAt = 2

	in := validInput()
	in.Images = images(3)
	_, err := f.svc.Submit(context.Background(), alice, in)

	assert.ErrorIs(t, err, ErrImageUploadFailed)
	assert.Equal(t, []string{"img1", "img2"}, f.store.calls)

	all, err := f.repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, 1, f.observed["failed"])
}

func TestSubmit_GeocodesWhenNoCoordinates(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Lat, in.Lng = nil, nil
	in.Address = "blue bottle main"

	f.geocoder.On("Resolve", mock.Anything, "blue bottle main").
		Return(geo.Place{FormattedAddress: "Blue Bottle, 1 Main St, New York", Lat: 40.7, Lng: -74.01}, nil)

	v, err := f.svc.Submit(context.Background(), alice, in)
	require.NoError(t, err)
	assert.Equal(t, "Blue Bottle, 1 Main St, New York", v.Address)
	assert.InDelta(t, 40.7, v.Lat, 1e-9)
	f.geocoder.AssertExpectations(t)
}

func TestSubmit_AddressNotFound(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Lat, in.Lng = nil, nil
	f.geocoder.On("Resolve", mock.Anything, mock.Anything).Return(geo.Place{}, geo.ErrNoMatch)

	_, err := f.svc.Submit(context.Background(), alice, in)
	assert.ErrorIs(t, err, ErrAddressNotFound)
	assert.Empty(t, f.store.calls)
}

func TestListByOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Submit(ctx, alice, validInput())
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, &auth.Identity{ID: "bob"}, validInput())
	require.NoError(t, err)

	mine, err := f.svc.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, StatusPending, mine[0].Status)
}

func TestImageTray_RefusesFourth(t *testing.T) {
	tray := NewImageTray()
	for _, img := range images(3) {
		require.NoError(t, tray.Add(img))
	}
	assert.ErrorIs(t, tray.Add(Image{Name: "img4"}), ErrTooManyImages)
	assert.Equal(t, 3, tray.Len())

	tray.Remove(0)
	tray.Remove(10)
	assert.Equal(t, "img2", tray.Images()[0].Name)
	assert.NoError(t, tray.Add(Image{Name: "img4"}))
}

func TestVenueValidate(t *testing.T) {
	v := &Venue{
		Status:    "archived",
		Amenities: AmenitySet{"wifi", "pool", "WIFI", "toilets"},
		Images:    ImageList{"a", "b", "c", "d"},
	}
	v.Validate()

	assert.Equal(t, StatusPending, v.Status)
	assert.Equal(t, AmenitySet{AmenityWifi, AmenityToilets}, v.Amenities)
	assert.Len(t, v.Images, MaxImages)
}

func TestParseAmenityList(t *testing.T) {
	got, err := ParseAmenityList(" wifi, Toilets ,, quietEnvironment ,wifi")
	require.NoError(t, err)
	assert.Equal(t, AmenitySet{AmenityWifi, AmenityToilets, AmenityQuietEnvironment}, got)

	empty, err := ParseAmenityList("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseAmenityList("wifi, hot tub")
	assert.ErrorIs(t, err, ErrUnknownAmenity)
}

func TestRepository_RoundTripsJSONColumns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Submit(ctx, alice, validInput())
	require.NoError(t, err)

	require.NoError(t, f.repo.Update(ctx, v.ID, map[string]any{"amenities": AmenitySet{AmenityToilets}}))
	got, err := f.repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, AmenitySet{AmenityToilets}, got.Amenities)
	assert.Len(t, got.Images, 2)

	assert.ErrorIs(t, f.repo.Delete(ctx, "missing"), ErrVenueNotFound)
}
