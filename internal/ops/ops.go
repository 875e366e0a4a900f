package ops

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/parley/internal/config"
	"github.com/hpungsan/parley/internal/conversation"
	"github.com/hpungsan/parley/internal/db"
	"github.com/hpungsan/parley/internal/errors"
	"github.com/hpungsan/parley/internal/gateway"
	"github.com/hpungsan/parley/internal/logging"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Host call operations as recorded in the journal.
const (
	OpDetect    = "detect"
	OpSummarize = "summarize"
	OpTranslate = "translate"
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Journal receives one record per host call.
type Journal interface {
	Record(ctx context.Context, c db.Call) error
}

// Options configures a Session.
type Options struct {
	Logger  *zap.Logger
	Journal Journal

	// Targets are the translation choices offered per message.
	Targets []string

	// SummaryMinChars is the length a text must exceed before summarizing is offered.
	SummaryMinChars int
}

// OptionsFromConfig fills the config-driven parts of Options.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return Options{
		Targets:         cfg.TranslationTargets,
		SummaryMinChars: cfg.SummaryMinChars,
	}
}

// Session sequences host calls against the conversation store. It owns the
// availability state, the error banner and the in-flight bookkeeping.
type Session struct {
	gw      *gateway.Gateway
	store   *conversation.Store
	logger  *zap.Logger
	journal Journal

	targets  []string
	minChars int

	availability gateway.ProbeResult

	mu        sync.Mutex
	banner    string
	inflight  map[flightKey]bool
	busyCount map[busyKey]int
}

type flightKey struct {
	kind   conversation.BusyKind
	id     string
	target string
}

type busyKey struct {
	kind conversation.BusyKind
	id   string
}

// NewSession creates a session and probes the host once.
func NewSession(gw *gateway.Gateway, store *conversation.Store, opts Options) *Session {
	s := &Session{
		gw:        gw,
		store:     store,
		logger:    logging.OrNop(opts.Logger),
		journal:   opts.Journal,
		targets:   normalizeTargets(opts.Targets),
		minChars:  opts.SummaryMinChars,
		inflight:  make(map[flightKey]bool),
		busyCount: make(map[busyKey]int),
	}
	if len(s.targets) == 0 {
		s.targets = normalizeTargets(config.DefaultConfig().TranslationTargets)
	}
	if s.minChars <= 0 {
		s.minChars = config.DefaultConfig().SummaryMinChars
	}

	s.availability = gw.Probe()
	if s.availability.State != gateway.StateAvailable {
		s.logger.Warn("host capabilities missing", zap.Strings("missing", s.availability.Missing))
	}
	return s
}

// AvailabilityOutput is the result of the startup probe.
type AvailabilityOutput struct {
	State   gateway.State `json:"state"`
	Missing []string      `json:"missing"`
}

// Availability returns the probe result. It never changes after NewSession.
func (s *Session) Availability() AvailabilityOutput {
	missing := append([]string{}, s.availability.Missing...)
	return AvailabilityOutput{State: s.availability.State, Missing: missing}
}

// Targets returns the configured translation targets.
func (s *Session) Targets() []string {
	return append([]string(nil), s.targets...)
}

// Store exposes the underlying conversation store.
func (s *Session) Store() *conversation.Store {
	return s.store
}

// Error returns the current banner text, or "" when none is shown.
func (s *Session) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.banner
}

// DismissError clears the banner.
func (s *Session) DismissError() {
	s.mu.Lock()
	s.banner = ""
	s.mu.Unlock()
}

func (s *Session) setError(err error) {
	msg := bannerText(err)
	s.logger.Warn("operation failed", zap.String("code", string(errors.CodeOf(err))), zap.String("message", msg))
	s.mu.Lock()
	s.banner = msg
	s.mu.Unlock()
}

// bannerText returns the human-readable part of err.
func bannerText(err error) string {
	var pErr *errors.ParleyError
	if stderrors.As(err, &pErr) {
		return pErr.Message
	}
	return err.Error()
}

func (s *Session) requireAvailable() error {
	if s.availability.State != gateway.StateAvailable {
		return errors.NewCapabilityUnavailable(s.availability.Missing...)
	}
	return nil
}

// begin claims the in-flight slot for key and raises the busy flag.
func (s *Session) begin(key flightKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[key] {
		return false
	}
	s.inflight[key] = true
	bk := busyKey{kind: key.kind, id: key.id}
	s.busyCount[bk]++
	if s.busyCount[bk] == 1 {
		s.store.SetBusy(key.kind, key.id, true)
	}
	return true
}

// end releases key. The busy flag drops once no call of that kind remains
// for the message.
func (s *Session) end(key flightKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
	bk := busyKey{kind: key.kind, id: key.id}
	s.busyCount[bk]--
	if s.busyCount[bk] <= 0 {
		delete(s.busyCount, bk)
		s.store.SetBusy(key.kind, key.id, false)
	}
}

func (s *Session) inFlight(key flightKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[key]
}

// record writes a journal entry. Failures are logged and otherwise ignored.
func (s *Session) record(ctx context.Context, operation, messageID, source, target string, start time.Time, callErr error) {
	if s.journal == nil {
		return
	}
	c := db.Call{
		Operation:  operation,
		MessageID:  messageID,
		SourceLang: source,
		TargetLang: target,
		Outcome:    db.OutcomeOK,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if callErr != nil {
		c.Outcome = string(errors.CodeOf(callErr))
		c.ErrorMessage = bannerText(callErr)
	}
	if err := s.journal.Record(context.WithoutCancel(ctx), c); err != nil {
		s.logger.Error("failed to journal host call", zap.String("operation", operation), zap.Error(err))
	}
}

func normalizeTargets(targets []string) []string {
	seen := make(map[string]bool, len(targets))
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		code := gateway.NormalizeCode(t)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}
