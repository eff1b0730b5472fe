// Package session holds the authoritative in-memory record for live rooms.
// It is the single shared mutable resource of the relay: the coordinator
// reads and writes it, everything else observes through it.
package session

import "sync"

// State is a point-in-time view of one room's session record.
type State struct {
	Members      []string
	LastPosition string
}

// Store provides atomic read/mutate operations keyed by room id.
// Implementations must be safe for concurrent use.
type Store interface {
	// GetOrCreate returns the room's state, creating an empty record
	// if none exists. Idempotent, never fails.
	GetOrCreate(room string) State

	// AddMember inserts a connection id into the room's member set,
	// creating the room if needed, and returns the resulting size.
	AddMember(room, conn string) int

	// RemoveMember deletes a connection id from the room's member set.
	// No-op if the room or the member is absent.
	RemoveMember(room, conn string)

	// RecordPosition overwrites the room's last known position snapshot.
	// The caller must ensure the room exists; recording against an
	// absent room is a no-op.
	RecordPosition(room, snapshot string)

	// Snapshot returns the stored position and whether one exists.
	Snapshot(room string) (string, bool)

	// Remove deletes the room record entirely. Idempotent.
	Remove(room string)

	// MembershipSize returns the current participant count, 0 if the
	// room is absent.
	MembershipSize(room string) int
}

type roomState struct {
	members      map[string]struct{}
	lastPosition string
	hasPosition  bool
}

// MemoryStore is the process-lifetime Store implementation. State is
// lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*roomState
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*roomState)}
}

func (s *MemoryStore) GetOrCreate(room string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.locked(room).view()
}

func (s *MemoryStore) AddMember(room, conn string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.locked(room)
	r.members[conn] = struct{}{}
	return len(r.members)
}

func (s *MemoryStore) RemoveMember(room, conn string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.rooms[room]; ok {
		delete(r.members, conn)
	}
}

func (s *MemoryStore) RecordPosition(room, snapshot string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.rooms[room]; ok {
		r.lastPosition = snapshot
		r.hasPosition = true
	}
}

func (s *MemoryStore) Snapshot(room string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[room]
	if !ok || !r.hasPosition {
		return "", false
	}
	return r.lastPosition, true
}

func (s *MemoryStore) Remove(room string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rooms, room)
}

func (s *MemoryStore) MembershipSize(room string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.rooms[room]; ok {
		return len(r.members)
	}
	return 0
}

// locked returns the room record, creating it if absent. Caller must
// hold the write lock.
func (s *MemoryStore) locked(room string) *roomState {
	r, ok := s.rooms[room]
	if !ok {
		r = &roomState{members: make(map[string]struct{})}
		s.rooms[room] = r
	}
	return r
}

func (r *roomState) view() State {
	members := make([]string, 0, len(r.members))
	for m := range r.members {
		members = append(members, m)
	}
	st := State{Members: members}
	if r.hasPosition {
		st.LastPosition = r.lastPosition
	}
	return st
}
