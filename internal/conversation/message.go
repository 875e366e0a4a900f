package conversation

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Message is one submitted text and everything derived from it.
type Message struct {
	// ID is a ULID, so ids sort by creation time
	ID string `json:"id"`

	// Text is the trimmed input; it never changes after creation
	Text string `json:"text"`

	// Language is the detected code, "unknown" when the detector had no
	// answer, or empty when detection failed
	Language string `json:"language"`

	// Summary is empty until summarized
	Summary string `json:"summary,omitempty"`

	// Translations maps target language code to translated text
	Translations map[string]string `json:"translations,omitempty"`

	// CreatedAt is the Unix timestamp of submission
	CreatedAt int64 `json:"created_at"`
}

// HasSummary reports whether a summary was stored.
func (m Message) HasSummary() bool {
	return m.Summary != ""
}

// HasTranslation reports whether a translation to lang exists.
func (m Message) HasTranslation(lang string) bool {
	_, ok := m.Translations[lang]
	return ok
}

// clone returns a copy whose Translations map is not shared with m.
func (m Message) clone() Message {
	if m.Translations != nil {
		tr := make(map[string]string, len(m.Translations))
		for k, v := range m.Translations {
			tr[k] = v
		}
		m.Translations = tr
	}
	return m
}

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a new ULID. Ids from one process are strictly increasing.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), idEntropy).String()
}

// NewMessage builds a message with a fresh id and the current time.
func NewMessage(text, language string) Message {
	return Message{
		ID:        NewID(),
		Text:      text,
		Language:  language,
		CreatedAt: time.Now().Unix(),
	}
}
