package client

import (
	"context"
	"sync"

	"github.com/runclub/backend/pkg/logger"
)

// SessionState holds who is signed in on a Client. It starts out loading;
// Init or Refresh settle it. Safe for concurrent use.
type SessionState struct {
	client *Client

	mu      sync.RWMutex
	user    *User
	session *Session
	loading bool
	closed  bool
}

func NewSessionState(c *Client) *SessionState {
	return &SessionState{client: c, loading: true}
}

// Init loads the session for the first time.
func (s *SessionState) Init(ctx context.Context) error {
	return s.load(ctx)
}

// Refresh reloads the session, e.g. after signing in.
func (s *SessionState) Refresh(ctx context.Context) error {
	return s.load(ctx)
}

// load clears the state when the session cannot be fetched.
func (s *SessionState) load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.mu.Unlock()

	info, err := s.client.GetSession(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if s.closed {
		return nil
	}
	if err != nil {
		logger.Warn().Err(err).Msg("load session failed")
		s.user, s.session = nil, nil
		return err
	}
	s.user, s.session = info.User, info.Session
	return nil
}

// Logout signs out on the server and forgets the session. If the server call
// fails the local state is kept.
func (s *SessionState) Logout(ctx context.Context) error {
	if err := s.client.SignOut(ctx); err != nil {
		logger.Warn().Err(err).Msg("sign-out failed")
		return err
	}
	s.mu.Lock()
	s.user, s.session = nil, nil
	s.mu.Unlock()
	return nil
}

// Teardown drops the state. Later loads are ignored.
func (s *SessionState) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.loading = false
	s.user, s.session = nil, nil
}

func (s *SessionState) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil
}

func (s *SessionState) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *SessionState) Session() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *SessionState) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}
