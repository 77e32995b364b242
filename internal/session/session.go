// Package session holds the per-login application context. There are no
// package-level singletons: the session is built on login, passed
// explicitly to whoever needs it, and cleared on logout.
package session

import (
	"sync"

	"menu-planner/internal/catalog"
	"menu-planner/internal/menu"
)

// Session is the explicit application context for one signed-in user.
type Session struct {
	mu     sync.Mutex
	userID string
	pools  *menu.PoolCache
}

// New returns an empty, signed-out session.
func New() *Session {
	return &Session{}
}

// InitOnLogin binds the session to a user and creates a fresh pool cache
// over the given catalog.
func (s *Session) InitOnLogin(userID string, client catalog.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.pools = menu.NewPoolCache(client)
}

// ClearOnLogout drops all per-user state.
func (s *Session) ClearOnLogout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pools != nil {
		s.pools.Clear()
	}
	s.userID = ""
	s.pools = nil
}

// UserID returns the signed-in user id, empty when signed out.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Pools returns the session's pool cache, nil when signed out.
func (s *Session) Pools() *menu.PoolCache {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pools
}

// Active reports whether a user is signed in.
func (s *Session) Active() bool {
	return s.UserID() != ""
}
