// Package rooms tracks room membership per connection.
package rooms

import (
	"sort"
	"sync"

	domain "github.com/example/nextalk-server/domain/chat"
)

// Manager keeps room -> members and connection -> rooms in step.
// Rooms exist only while they have members.
type Manager struct {
	mu      sync.RWMutex
	members map[string]map[string]struct{} // room -> connIDs
	joined  map[string]map[string]struct{} // connID -> rooms
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		members: make(map[string]map[string]struct{}),
		joined:  make(map[string]map[string]struct{}),
	}
}

// Join adds connID to room and returns the normalized room name.
// Joining twice is the same as joining once.
func (m *Manager) Join(connID, room string) string {
	room = domain.RoomOrDefault(room)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.members[room] == nil {
		m.members[room] = make(map[string]struct{})
	}
	m.members[room][connID] = struct{}{}

	if m.joined[connID] == nil {
		m.joined[connID] = make(map[string]struct{})
	}
	m.joined[connID][room] = struct{}{}
	return room
}

// LeaveAll removes connID from every room it joined and returns those rooms.
func (m *Manager) LeaveAll(connID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	rooms, ok := m.joined[connID]
	if !ok {
		return nil
	}
	delete(m.joined, connID)

	left := make([]string, 0, len(rooms))
	for room := range rooms {
		delete(m.members[room], connID)
		if len(m.members[room]) == 0 {
			delete(m.members, room)
		}
		left = append(left, room)
	}
	sort.Strings(left)
	return left
}

// MembersOf returns the connection ids currently in room.
func (m *Manager) MembersOf(room string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.members[room]
	out := make([]string, 0, len(set))
	for connID := range set {
		out = append(out, connID)
	}
	return out
}

// RoomsOf returns the rooms connID has joined.
func (m *Manager) RoomsOf(connID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.joined[connID]))
	for room := range m.joined[connID] {
		out = append(out, room)
	}
	sort.Strings(out)
	return out
}

// Rooms returns every non-empty room with its member count.
func (m *Manager) Rooms() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]int, len(m.members))
	for room, set := range m.members {
		out[room] = len(set)
	}
	return out
}
