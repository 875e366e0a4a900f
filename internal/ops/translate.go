package ops

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/parley/internal/conversation"
	"github.com/hpungsan/parley/internal/errors"
	"github.com/hpungsan/parley/internal/gateway"
)

// TranslateInput contains parameters for the Translate operation.
type TranslateInput struct {
	ID     string
	Target string
}

// TranslateOutput contains the result of the Translate operation.
type TranslateOutput struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	Translation string `json:"translation"`
}

// Translate translates a message into one target language and stores the
// result. Calls for different targets of the same message run independently.
func (s *Session) Translate(ctx context.Context, input TranslateInput) (*TranslateOutput, error) {
	if err := s.requireAvailable(); err != nil {
		return nil, err
	}

	target := gateway.NormalizeCode(input.Target)
	if target == "" {
		return nil, errors.NewInvalidRequest("target language is required")
	}

	msg, ok := s.store.Get(input.ID)
	if !ok {
		return nil, errors.NewNotFound(input.ID)
	}
	if gateway.SameLanguage(target, msg.Language) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("message is already in %s", gateway.LanguageName(target)))
	}

	key := flightKey{kind: conversation.Translating, id: msg.ID, target: target}
	if !s.begin(key) {
		return nil, errors.NewConflict(fmt.Sprintf("translation to %s is already running", gateway.LanguageName(target)))
	}
	defer s.end(key)

	start := time.Now()
	out, err := s.gw.Translate(ctx, msg.Text, msg.Language, target)
	s.record(ctx, OpTranslate, msg.ID, msg.Language, target, start, err)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	s.store.AddTranslation(msg.ID, target, out)
	return &TranslateOutput{
		ID:          msg.ID,
		Source:      msg.Language,
		Target:      target,
		Translation: out,
	}, nil
}

// TranslateManyOutput contains the result of TranslateMany.
type TranslateManyOutput struct {
	ID           string            `json:"id"`
	Translations map[string]string `json:"translations"`
	Errors       map[string]string `json:"errors,omitempty"`
}

// TranslateMany runs Translate for every target concurrently. Successful
// targets are stored even when others fail; the first error is returned
// alongside the partial output.
func (s *Session) TranslateMany(ctx context.Context, id string, targets []string) (*TranslateManyOutput, error) {
	targets = normalizeTargets(targets)
	if len(targets) == 0 {
		return nil, errors.NewInvalidRequest("at least one target language is required")
	}
	if _, ok := s.store.Get(id); !ok {
		return nil, errors.NewNotFound(id)
	}

	out := &TranslateManyOutput{
		ID:           id,
		Translations: make(map[string]string, len(targets)),
	}
	var mu sync.Mutex

	var g errgroup.Group
	for _, target := range targets {
		g.Go(func() error {
			res, err := s.Translate(ctx, TranslateInput{ID: id, Target: target})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if out.Errors == nil {
					out.Errors = make(map[string]string)
				}
				out.Errors[target] = bannerText(err)
				return err
			}
			out.Translations[target] = res.Translation
			return nil
		})
	}

	return out, g.Wait()
}
