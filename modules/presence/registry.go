// Package presence tracks which live connections have declared a username.
package presence

import (
	"sort"
	"sync"
)

// Registry maps connection ids to declared usernames.
// A username may be held by several connections; it is reported once.
type Registry struct {
	mu    sync.RWMutex
	users map[string]string // connID -> username
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]string),
	}
}

// Register inserts or overwrites the username for connID and returns the
// online set as observed right after the write.
func (r *Registry) Register(connID, username string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[connID] = username
	return r.snapshotLocked()
}

// Remove drops connID. The bool reports whether an entry existed; removing an
// unknown connection leaves the registry untouched.
func (r *Registry) Remove(connID string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[connID]; !ok {
		return r.snapshotLocked(), false
	}
	delete(r.users, connID)
	return r.snapshotLocked(), true
}

// OnlineUsernames returns the distinct usernames, sorted.
func (r *Registry) OnlineUsernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Username returns the name registered for connID. The relay reports it
// when a connection closes.
func (r *Registry) Username(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.users[connID]
	return name, ok
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func (r *Registry) snapshotLocked() []string {
	seen := make(map[string]struct{}, len(r.users))
	out := make([]string, 0, len(r.users))
	for _, name := range r.users {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
