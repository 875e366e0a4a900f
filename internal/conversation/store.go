// Package conversation holds the ordered message list and the per-message
// busy flags. Every mutation publishes a new immutable Snapshot, so a
// snapshot handed to a renderer never changes underneath it.
package conversation

import (
	"sync"

	"github.com/hpungsan/parley/internal/gateway"
)

// BusyKind selects one of the two busy maps.
type BusyKind int

const (
	Summarizing BusyKind = iota
	Translating
)

// String returns the map name.
func (k BusyKind) String() string {
	switch k {
	case Summarizing:
		return "summarizing"
	case Translating:
		return "translating"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only view of the conversation. Callers must not mutate it.
type Snapshot struct {
	Version     uint64          `json:"version"`
	Messages    []Message       `json:"messages"`
	Summarizing map[string]bool `json:"summarizing"`
	Translating map[string]bool `json:"translating"`
}

// Find returns the message with the given id.
func (s *Snapshot) Find(id string) (Message, bool) {
	for _, m := range s.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// Busy reports a flag from one of the busy maps.
func (s *Snapshot) Busy(kind BusyKind, id string) bool {
	if kind == Summarizing {
		return s.Summarizing[id]
	}
	return s.Translating[id]
}

// Store is the conversation store. All methods are safe for concurrent use
// and never fail; operations on unknown ids are no-ops.
type Store struct {
	mu   sync.Mutex
	snap *Snapshot
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		snap: &Snapshot{
			Messages:    []Message{},
			Summarizing: map[string]bool{},
			Translating: map[string]bool{},
		},
	}
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Get returns a copy of the message with the given id.
func (s *Store) Get(id string) (Message, bool) {
	m, ok := s.Snapshot().Find(id)
	if !ok {
		return Message{}, false
	}
	return m.clone(), true
}

// Len returns the number of messages.
func (s *Store) Len() int {
	return len(s.Snapshot().Messages)
}

// Append adds msg to the end of the list.
func (s *Store) Append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.next()
	next.Messages = make([]Message, len(s.snap.Messages), len(s.snap.Messages)+1)
	copy(next.Messages, s.snap.Messages)
	next.Messages = append(next.Messages, msg.clone())
	s.snap = next
}

// SetSummary overwrites the summary of message id.
func (s *Store) SetSummary(id, text string) {
	s.update(id, func(m *Message) bool {
		m.Summary = text
		return true
	})
}

// AddTranslation inserts or overwrites the translation of message id into
// lang. A translation into the message's own base language is ignored.
func (s *Store) AddTranslation(id, lang, text string) {
	s.update(id, func(m *Message) bool {
		if gateway.SameLanguage(lang, m.Language) {
			return false
		}
		if m.Translations == nil {
			m.Translations = make(map[string]string, 1)
		}
		m.Translations[lang] = text
		return true
	})
}

// SetBusy sets a flag in one of the busy maps.
func (s *Store) SetBusy(kind BusyKind, id string, busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.next()
	next.Messages = s.snap.Messages
	flags := copyFlags(s.snap.Summarizing)
	if kind == Translating {
		flags = copyFlags(s.snap.Translating)
	}
	flags[id] = busy
	if kind == Summarizing {
		next.Summarizing = flags
	} else {
		next.Translating = flags
	}
	s.snap = next
}

// update applies fn to a private copy of message id and publishes it if fn
// reports a change.
func (s *Store) update(id string, fn func(*Message) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, m := range s.snap.Messages {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	msg := s.snap.Messages[idx].clone()
	if !fn(&msg) {
		return
	}

	next := s.next()
	next.Messages = make([]Message, len(s.snap.Messages))
	copy(next.Messages, s.snap.Messages)
	next.Messages[idx] = msg
	s.snap = next
}

// next starts a new snapshot that shares the busy maps of the current one.
// Callers replace whatever they change. Must be called with mu held.
func (s *Store) next() *Snapshot {
	return &Snapshot{
		Version:     s.snap.Version + 1,
		Messages:    s.snap.Messages,
		Summarizing: s.snap.Summarizing,
		Translating: s.snap.Translating,
	}
}

func copyFlags(src map[string]bool) map[string]bool {
	dst := make(map[string]bool, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
