// Package identity assigns pass-local integer IDs to participants.
package identity

import (
	"sort"
	"sync"

	"github.com/vanshika/momoledger/internal/domain"
)

// Key is the identity of a participant within one parsing pass.
type Key struct {
	Name       string
	Identifier string
	Role       domain.Role
}

// Entry pairs an assigned ID with the key it was assigned to.
type Entry struct {
	ID int
	Key
}

// Map hands out IDs starting at 1 in first-seen order. The same key always
// resolves to the same ID for the lifetime of the map.
type Map struct {
	mu   sync.Mutex
	ids  map[Key]int
	next int
}

// NewMap returns an empty identity map.
func NewMap() *Map {
	return &Map{
		ids:  make(map[Key]int),
		next: 1,
	}
}

// Resolve returns the ID for (name, identifier, role), assigning the next
// counter value when the key has not been seen before.
func (m *Map) Resolve(name, identifier string, role domain.Role) int {
	key := Key{Name: name, Identifier: identifier, Role: role}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.ids[key]; ok {
		return id
	}
	id := m.next
	m.ids[key] = id
	m.next++
	return id
}

// Assign fills in UserID on each participant in place.
func (m *Map) Assign(participants []domain.Participant) {
	for i := range participants {
		p := &participants[i]
		p.UserID = m.Resolve(p.Name, p.PhoneNumber, p.UserType)
	}
}

// Len reports how many distinct identities have been assigned.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ids)
}

// Entries returns every assigned identity ordered by ID.
func (m *Map) Entries() []Entry {
	m.mu.Lock()
	entries := make([]Entry, 0, len(m.ids))
	for key, id := range m.ids {
		entries = append(entries, Entry{ID: id, Key: key})
	}
	m.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}
