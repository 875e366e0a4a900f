package ops

import (
	"github.com/hpungsan/parley/internal/conversation"
	"github.com/hpungsan/parley/internal/errors"
	"github.com/hpungsan/parley/internal/gateway"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID string
}

// FetchOutput is a message plus its busy state.
type FetchOutput struct {
	conversation.Message
	LanguageName string `json:"language_name"`
	Summarizing  bool   `json:"summarizing"`
	Translating  bool   `json:"translating"`
}

// Fetch returns one message.
func (s *Session) Fetch(input FetchInput) (*FetchOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	snap := s.store.Snapshot()
	msg, ok := snap.Find(input.ID)
	if !ok {
		return nil, errors.NewNotFound(input.ID)
	}
	return &FetchOutput{
		Message:      msg,
		LanguageName: gateway.LanguageName(msg.Language),
		Summarizing:  snap.Busy(conversation.Summarizing, msg.ID),
		Translating:  snap.Busy(conversation.Translating, msg.ID),
	}, nil
}

// ListOutput is the whole conversation at one version.
type ListOutput struct {
	Version  uint64                 `json:"version"`
	Messages []conversation.Message `json:"messages"`
	Error    string                 `json:"error,omitempty"`
}

// List returns every message in submission order.
func (s *Session) List() *ListOutput {
	snap := s.store.Snapshot()
	return &ListOutput{
		Version:  snap.Version,
		Messages: snap.Messages,
		Error:    s.Error(),
	}
}
