package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"workspots/internal/changefeed"
	"workspots/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImages struct {
	url   string
	err   error
	calls int
}

func (f *fakeImages) StoreImage(_ context.Context, ownerID, prefix, _ string, _ []byte) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url + "/" + prefix + "/" + ownerID, nil
}

func newRepo(t *testing.T, feed changefeed.Publisher) Repository {
	db := testutil.OpenDB(t, &Profile{})
	return NewRepository(db, feed)
}

func TestValidate_NormalisesStoredValues(t *testing.T) {
	p := &Profile{DisplayName: "Alexandrina Petrova", Verification: "maybe"}
	p.Validate()

	assert.Equal(t, "Alexandrin", p.DisplayName)
	assert.Equal(t, VerificationUnset, p.Verification)
}

func TestNew_KeysProfileByIdentity(t *testing.T) {
	p := New("id-1", " Ann@Example.COM ", "Ann", PlaceholderAvatarURL, VerificationNo)

	assert.Equal(t, "id-1", p.ID)
	assert.Equal(t, "ann@example.com", p.Email)
	assert.False(t, p.IsAdmin)
	assert.False(t, p.IsBanned)
	assert.True(t, p.NeedsVerificationHeal(true))
	assert.False(t, p.NeedsVerificationHeal(false))
}

func TestRepository_MergeUpdateAnnounces(t *testing.T) {
	ctx := context.Background()
	feed := changefeed.NewMemoryBroker()
	defer feed.Close()
	events, cancel, err := feed.Subscribe(changefeed.CollectionUsers)
	require.NoError(t, err)
	defer cancel()

	repo := newRepo(t, feed)
	p := New("u1", "a@b.c", "Ann", "", VerificationNo)
	p.JobOccupation = "Writer"
	require.NoError(t, repo.Create(ctx, p))
	<-events

	require.NoError(t, repo.Update(ctx, "u1", map[string]any{"is_verified": VerificationYes}))

	select {
	case ev := <-events:
		assert.Equal(t, changefeed.OpUpdate, ev.Op)
		assert.Equal(t, "u1", ev.DocID)
	case <-time.After(time.Second):
		t.Fatal("no update event")
	}

	got, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, VerificationYes, got.Verification)
	assert.Equal(t, "Writer", got.JobOccupation)
	assert.Equal(t, "Ann", got.DisplayName)
}

func TestRepository_Missing(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, nil)

	_, err := repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.ErrorIs(t, repo.Update(ctx, "nope", map[string]any{"is_admin": true}), ErrProfileNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "nope"), ErrProfileNotFound)
}

func TestRepository_ListRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, nil)

	base := time.Now().UTC()
	for i, id := range []string{"old", "mid", "new"} {
		p := New(id, id+"@x.io", id, "", VerificationYes)
		p.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, p))
	}

	got, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
}

func TestService_UpdateSelf(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, nil)
	require.NoError(t, repo.Create(ctx, New("u1", "a@b.c", "Ann", "", VerificationYes)))
	svc := NewService(repo, &fakeImages{})

	name := "<b>Bobby</b>"
	p, err := svc.UpdateSelf(ctx, "u1", UpdateMeRequest{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Bobby", p.DisplayName)

	long := "Bartholomew"
	_, err = svc.UpdateSelf(ctx, "u1", UpdateMeRequest{DisplayName: &long})
	assert.ErrorIs(t, err, ErrDisplayName)

	job := "Designer"
	p, err = svc.UpdateSelf(ctx, "u1", UpdateMeRequest{JobOccupation: &job})
	require.NoError(t, err)
	assert.Equal(t, "Designer", p.JobOccupation)
	assert.Equal(t, "Bobby", p.DisplayName)
}

func TestService_SetAvatar(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, nil)
	require.NoError(t, repo.Create(ctx, New("u1", "a@b.c", "Ann", "", VerificationYes)))

	images := &fakeImages{url: "/static/uploads"}
	p, err := NewService(repo, images).SetAvatar(ctx, "u1", "me.png", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "/static/uploads/avatars/u1", p.AvatarURL)

	failing := &fakeImages{err: errors.New("disk full")}
	_, err = NewService(repo, failing).SetAvatar(ctx, "u1", "me.png", []byte("img"))
	assert.Error(t, err)

	got, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "/static/uploads/avatars/u1", got.AvatarURL)
}
