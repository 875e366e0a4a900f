package ops

import (
	"context"
	"strings"
	"time"

	"github.com/hpungsan/parley/internal/conversation"
	"github.com/hpungsan/parley/internal/errors"
	"github.com/hpungsan/parley/internal/gateway"
)

// SendInput contains parameters for the Send operation.
type SendInput struct {
	Text string
}

// SendOutput contains the result of the Send operation.
type SendOutput struct {
	ID           string `json:"id"`
	Language     string `json:"language"`
	LanguageName string `json:"language_name"`

	// Error carries the detection failure, if any. The message is still stored.
	Error string `json:"error,omitempty"`
}

// Send detects the language of the trimmed text and appends it as a new message.
func (s *Session) Send(ctx context.Context, input SendInput) (*SendOutput, error) {
	if err := s.requireAvailable(); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, errors.NewInvalidRequest("text must not be empty")
	}

	start := time.Now()
	lang, err := s.gw.DetectLanguage(ctx, text)

	msg := conversation.NewMessage(text, lang)
	s.record(ctx, OpDetect, msg.ID, "", "", start, err)

	out := &SendOutput{ID: msg.ID}
	if err != nil {
		msg.Language = ""
		s.setError(err)
		out.Error = bannerText(err)
	}
	s.store.Append(msg)

	out.Language = msg.Language
	out.LanguageName = gateway.LanguageName(msg.Language)
	return out, nil
}
