package moderation

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"workspots/internal/changefeed"
	"workspots/internal/domain/profile"
	"workspots/internal/domain/session"
	"workspots/internal/realtime"
	"workspots/internal/source"
)

// Client messages on the admin streams.
type command struct {
	Term      string  `json:"term"`
	Page      int     `json:"page"`
	ID        string  `json:"id"`
	Value     bool    `json:"value"`
	Name      *string `json:"name"`
	Address   *string `json:"address"`
	Amenities *string `json:"amenities"`
}

func decode(in realtime.Inbound) (command, bool) {
	var cmd command
	if len(in.Data) == 0 {
		return cmd, true
	}
	return cmd, json.Unmarshal(in.Data, &cmd) == nil
}

// Sessions starts a context that follows one identity for the lifetime of
// a stream.
type Sessions interface {
	Start(ctx context.Context, identityID string) (*session.Context, error)
}

// moderator is the acting admin of one stream, kept current by a session
// context.
type moderator struct {
	sc *session.Context
}

func startModerator(ctx context.Context, sessions Sessions, identityID string) (*moderator, error) {
	sc, err := sessions.Start(ctx, identityID)
	if err != nil {
		return nil, err
	}
	m := &moderator{sc: sc}
	if err := authorize(m.current()); err != nil {
		sc.Close()
		return nil, err
	}
	return m, nil
}

// current is the acting profile while the session may use the admin page,
// nil otherwise.
func (m *moderator) current() *profile.Profile {
	st := m.sc.State()
	if st.Allow(session.PageAdmin).Outcome != session.OutcomeAllow {
		return nil
	}
	return st.Profile
}

// watch ends the stream once the moderator is demoted, banned, deleted or
// signed out.
func (m *moderator) watch(ctx context.Context, conn *realtime.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.Done():
			return
		case st := <-m.sc.Updates():
			if st.Allow(session.PageAdmin).Outcome != session.OutcomeAllow {
				conn.End("ACCESS_DENIED", ErrAccessDenied.Error())
				return
			}
		}
	}
}

func (m *moderator) close() {
	if m != nil {
		m.sc.Close()
	}
}

// usersStream keeps an admin's users table live: every write to the users
// collection re-runs the query and pushes a fresh page.
type usersStream struct {
	ctx        context.Context
	stop       context.CancelFunc
	users      *Users
	feed       changefeed.Broker
	sessions   Sessions
	identityID string

	mu     sync.Mutex
	mod    *moderator
	board  *UsersBoard
	cancel func()
}

func newUsersStream(ctx context.Context, users *Users, feed changefeed.Broker, sessions Sessions, identityID string) *usersStream {
	ctx, stop := context.WithCancel(ctx)
	return &usersStream{ctx: ctx, stop: stop, users: users, feed: feed, sessions: sessions, identityID: identityID}
}

func (s *usersStream) Open(conn *realtime.Conn) error {
	mod, err := startModerator(s.ctx, s.sessions, s.identityID)
	if err != nil {
		return err
	}
	s.mod = mod

	board, err := s.users.Follow(mod.current)
	if err != nil {
		return err
	}
	query, err := s.users.Query(mod.current())
	if err != nil {
		return err
	}
	s.board = board

	sub := source.NewQuerySubscription(s.feed, changefeed.CollectionUsers, query)
	cancel, err := sub.Subscribe(s.ctx,
		func(items []*profile.Profile) {
			if authorize(mod.current()) != nil {
				return
			}
			s.mu.Lock()
			s.board.Reconcile(items)
			page := s.board.Page()
			s.mu.Unlock()
			conn.Send("users", page)
		},
		func(err error) {
			slog.Error("users stream query", "err", err)
			conn.SendError("LOAD_FAILED", "Failed to load users")
		})
	if err != nil {
		return err
	}
	s.cancel = cancel
	go mod.watch(s.ctx, conn)
	return nil
}

func (s *usersStream) Handle(conn *realtime.Conn, in realtime.Inbound) {
	cmd, ok := decode(in)
	if !ok {
		conn.SendError("INVALID_MESSAGE", "Malformed "+in.Type+" message")
		return
	}
	if err := authorize(s.mod.current()); err != nil {
		_, code, msg := classify(err)
		conn.SendError(code, msg)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch in.Type {
	case "search":
		s.board.Search(cmd.Term)
	case "page":
		s.board.SetPage(cmd.Page)
	case "next":
		s.board.Next()
	case "prev":
		s.board.Prev()
	case "set_admin":
		err = s.board.SetAdmin(s.ctx, cmd.ID, cmd.Value)
	case "set_banned":
		err = s.board.SetBanned(s.ctx, cmd.ID, cmd.Value)
	case "delete":
		err = s.board.Delete(s.ctx, cmd.ID)
	default:
		conn.SendError("UNKNOWN_TYPE", "Unknown message type: "+in.Type)
		return
	}
	if err != nil {
		_, code, msg := classify(err)
		conn.SendError(code, msg)
		return
	}
	conn.Send("users", s.board.Page())
}

func (s *usersStream) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.stop()
	s.mod.close()
}

// placesStream holds a one-shot places board for a moderator. It is only
// refreshed on request.
type placesStream struct {
	ctx        context.Context
	stop       context.CancelFunc
	places     *Places
	sessions   Sessions
	identityID string

	mod   *moderator
	board *PlacesBoard
}

func newPlacesStream(ctx context.Context, places *Places, sessions Sessions, identityID string) *placesStream {
	ctx, stop := context.WithCancel(ctx)
	return &placesStream{ctx: ctx, stop: stop, places: places, sessions: sessions, identityID: identityID}
}

func (s *placesStream) Open(conn *realtime.Conn) error {
	mod, err := startModerator(s.ctx, s.sessions, s.identityID)
	if err != nil {
		return err
	}
	s.mod = mod

	board, err := s.places.Board(s.ctx)
	if err != nil {
		return err
	}
	s.board = board
	conn.Send("places", board.Page())
	go mod.watch(s.ctx, conn)
	return nil
}

func (s *placesStream) Handle(conn *realtime.Conn, in realtime.Inbound) {
	cmd, ok := decode(in)
	if !ok {
		conn.SendError("INVALID_MESSAGE", "Malformed "+in.Type+" message")
		return
	}
	if err := authorize(s.mod.current()); err != nil {
		_, code, msg := classify(err)
		conn.SendError(code, msg)
		return
	}

	var err error
	switch in.Type {
	case "search":
		s.board.Search(cmd.Term)
	case "page":
		s.board.SetPage(cmd.Page)
	case "next":
		s.board.Next()
	case "prev":
		s.board.Prev()
	case "reload":
		err = s.board.Reload(s.ctx)
	case "approve":
		err = s.board.Approve(s.ctx, cmd.ID)
	case "reject":
		err = s.board.Reject(s.ctx, cmd.ID)
	case "edit":
		err = s.board.Edit(s.ctx, cmd.ID, EditPlaceRequest{Name: cmd.Name, Address: cmd.Address, Amenities: cmd.Amenities})
	case "delete":
		err = s.board.Delete(s.ctx, cmd.ID)
	default:
		conn.SendError("UNKNOWN_TYPE", "Unknown message type: "+in.Type)
		return
	}
	if err != nil {
		_, code, msg := classify(err)
		conn.SendError(code, msg)
		return
	}
	conn.Send("places", s.board.Page())
}

func (s *placesStream) Close() {
	s.stop()
	s.mod.close()
}
