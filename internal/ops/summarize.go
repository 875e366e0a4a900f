package ops

import (
	"context"
	"time"

	"github.com/hpungsan/parley/internal/conversation"
	"github.com/hpungsan/parley/internal/errors"
)

// SummarizeInput contains parameters for the Summarize operation.
type SummarizeInput struct {
	ID string
}

// SummarizeOutput contains the result of the Summarize operation.
type SummarizeOutput struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
}

// Summarize asks the host for a key-point summary and stores it on the message.
// On failure the banner is set and the message is left untouched.
func (s *Session) Summarize(ctx context.Context, input SummarizeInput) (*SummarizeOutput, error) {
	if err := s.requireAvailable(); err != nil {
		return nil, err
	}

	msg, ok := s.store.Get(input.ID)
	if !ok {
		return nil, errors.NewNotFound(input.ID)
	}

	key := flightKey{kind: conversation.Summarizing, id: msg.ID}
	if !s.begin(key) {
		return nil, errors.NewConflict("message is already being summarized")
	}
	defer s.end(key)

	start := time.Now()
	summary, err := s.gw.Summarize(ctx, msg.Text)
	s.record(ctx, OpSummarize, msg.ID, msg.Language, "", start, err)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	s.store.SetSummary(msg.ID, summary)
	return &SummarizeOutput{ID: msg.ID, Summary: summary}, nil
}
