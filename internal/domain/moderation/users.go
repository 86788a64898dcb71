package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"workspots/internal/domain/profile"
	"workspots/internal/source"
	"workspots/internal/view"
)

const (
	UsersPageSize = 10
	UsersLimit    = 100
)

// Accounts removes identities and ends their sessions.
type Accounts interface {
	DeleteIdentity(ctx context.Context, identityID string) error
	RevokeSessions(ctx context.Context, identityID string) error
}

// Users moderates accounts. Every call takes the acting profile and refuses
// non-admins before touching storage.
type Users struct {
	profiles profile.Repository
	accounts Accounts
	observer Observer
}

func NewUsers(profiles profile.Repository, accounts Accounts, observer Observer) *Users {
	return &Users{profiles: profiles, accounts: accounts, observer: observer}
}

func authorize(actor *profile.Profile) error {
	if actor == nil || !actor.IsAdmin || actor.IsBanned {
		return ErrAccessDenied
	}
	return nil
}

// Query returns the newest profiles, capped at UsersLimit.
func (u *Users) Query(actor *profile.Profile) (source.FetchFunc[*profile.Profile], error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	return func(ctx context.Context) ([]*profile.Profile, error) {
		return u.profiles.ListRecent(ctx, UsersLimit)
	}, nil
}

// Board returns an empty listing for actor. Feed it with Reconcile.
func (u *Users) Board(actor *profile.Profile) (*UsersBoard, error) {
	return u.Follow(func() *profile.Profile { return actor })
}

// Follow is Board for long-lived consumers: current is asked for the acting
// profile on every action, so losing admin rights takes effect at once.
func (u *Users) Follow(current func() *profile.Profile) (*UsersBoard, error) {
	actor := current()
	if err := authorize(actor); err != nil {
		return nil, err
	}
	return &UsersBoard{
		users:   u,
		actorID: actor.ID,
		actor:   current,
		list:    view.NewListing(UsersPageSize, userID, matchUser),
	}, nil
}

// Load runs a one-shot read into a new board.
func (u *Users) Load(ctx context.Context, actor *profile.Profile) (*UsersBoard, error) {
	query, err := u.Query(actor)
	if err != nil {
		return nil, err
	}
	items, err := query(ctx)
	if err != nil {
		slog.Error("load users for moderation", "err", err)
		return nil, fmt.Errorf("load users: %w", err)
	}
	b, _ := u.Board(actor)
	b.Reconcile(items)
	return b, nil
}

func (u *Users) SetAdmin(ctx context.Context, actor *profile.Profile, id string, admin bool) error {
	if err := u.guard(actor, id); err != nil {
		return err
	}
	if err := u.profiles.Update(ctx, id, map[string]any{"is_admin": admin}); err != nil {
		slog.Error("set admin flag", "id", id, "err", err)
		return err
	}
	u.observe(ActionToggleAdmin)
	return nil
}

// SetBanned flips the ban flag. Banning also ends the target's sessions.
func (u *Users) SetBanned(ctx context.Context, actor *profile.Profile, id string, banned bool) error {
	if err := u.guard(actor, id); err != nil {
		return err
	}
	if err := u.profiles.Update(ctx, id, map[string]any{"is_banned": banned}); err != nil {
		slog.Error("set ban flag", "id", id, "err", err)
		return err
	}
	if banned {
		if err := u.accounts.RevokeSessions(ctx, id); err != nil {
			slog.Warn("revoke sessions of banned user", "id", id, "err", err)
		}
	}
	u.observe(ActionToggleBan)
	return nil
}

func (u *Users) Delete(ctx context.Context, actor *profile.Profile, id string) error {
	if err := u.guard(actor, id); err != nil {
		return err
	}
	if err := u.accounts.DeleteIdentity(ctx, id); err != nil {
		slog.Error("delete user", "id", id, "err", err)
		return err
	}
	u.observe(ActionDelete)
	return nil
}

func (u *Users) guard(actor *profile.Profile, id string) error {
	if err := authorize(actor); err != nil {
		return err
	}
	if actor.ID == id {
		return ErrSelfTarget
	}
	return nil
}

func (u *Users) observe(action string) {
	if u.observer != nil {
		u.observer.ObserveModeration(action)
	}
}

// UsersBoard is one admin's view of the users table.
type UsersBoard struct {
	users   *Users
	actorID string
	actor   func() *profile.Profile
	list    *view.Listing[*profile.Profile]
}

func (b *UsersBoard) Reconcile(items []*profile.Profile) { b.list.Reconcile(items) }

func (b *UsersBoard) Search(term string) { b.list.Search(term) }

func (b *UsersBoard) SetPage(n int) { b.list.SetPage(n) }

func (b *UsersBoard) Next() { b.list.Next() }

func (b *UsersBoard) Prev() { b.list.Prev() }

// Page renders the current window. The actor's own row carries no actions.
func (b *UsersBoard) Page() Page[UserRow] {
	return pageOf(b.list, func(p *profile.Profile) UserRow {
		if p.ID == b.actorID {
			return UserRow{Profile: p, Actions: []string{}}
		}
		return UserRow{Profile: p, Actions: []string{ActionToggleAdmin, ActionToggleBan, ActionDelete}}
	})
}

func (b *UsersBoard) SetAdmin(ctx context.Context, id string, admin bool) error {
	if err := b.users.SetAdmin(ctx, b.actor(), id, admin); err != nil {
		return err
	}
	b.list.Patch(id, func(old *profile.Profile) *profile.Profile {
		cp := *old
		cp.IsAdmin = admin
		return &cp
	})
	return nil
}

func (b *UsersBoard) SetBanned(ctx context.Context, id string, banned bool) error {
	if err := b.users.SetBanned(ctx, b.actor(), id, banned); err != nil {
		return err
	}
	b.list.Patch(id, func(old *profile.Profile) *profile.Profile {
		cp := *old
		cp.IsBanned = banned
		return &cp
	})
	return nil
}

func (b *UsersBoard) Delete(ctx context.Context, id string) error {
	if err := b.users.Delete(ctx, b.actor(), id); err != nil {
		return err
	}
	b.list.Remove(id)
	return nil
}

func userID(p *profile.Profile) string { return p.ID }

func matchUser(p *profile.Profile, term string) bool {
	return view.ContainsFold(term, p.DisplayName, p.Email, p.JobOccupation)
}
