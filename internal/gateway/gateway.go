// Package gateway adapts the host capability surface into the three calls
// parley needs: detect a language, summarize a text, translate a text.
// It owns no state; every call maps to exactly one host invocation.
package gateway

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/parley/internal/errors"
	"github.com/hpungsan/parley/internal/host"
	"github.com/hpungsan/parley/internal/logging"
)

// Display names of the host capabilities, used in probe results.
const (
	DetectorName   = "Language Detector API"
	TranslatorName = "Translator API"
	SummarizerName = "Summarizer API"
)

// UnknownLanguage is returned when the detector produced no result.
const UnknownLanguage = "unknown"

// State is the availability of the whole capability surface.
type State string

const (
	StateUnknown     State = "unknown"
	StateUnavailable State = "unavailable"
	StateAvailable   State = "available"
)

// ProbeResult is the outcome of Probe.
type ProbeResult struct {
	State   State    `json:"state"`
	Missing []string `json:"missing,omitempty"`
}

// Gateway wraps a host.Surface.
type Gateway struct {
	surface  host.Surface
	logger   *zap.Logger
	observer host.Monitor
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for host call tracing.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithProgressObserver receives detector preparation progress.
func WithProgressObserver(fn host.Monitor) Option {
	return func(g *Gateway) { g.observer = fn }
}

// New creates a Gateway over the given surface.
func New(surface host.Surface, opts ...Option) *Gateway {
	g := &Gateway{surface: surface}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.OrNop(g.logger)
	return g
}

// Probe checks which capabilities the host exposes. It never calls the host.
func (g *Gateway) Probe() ProbeResult {
	missing := make([]string, 0, 3)
	if g.surface.Detector == nil {
		missing = append(missing, DetectorName)
	}
	if g.surface.Translator == nil {
		missing = append(missing, TranslatorName)
	}
	if g.surface.Summarizer == nil {
		missing = append(missing, SummarizerName)
	}
	if len(missing) > 0 {
		return ProbeResult{State: StateUnavailable, Missing: missing}
	}
	return ProbeResult{State: StateAvailable}
}

// DetectLanguage returns the base language code of the top-ranked result
// for text, or UnknownLanguage if the detector returned nothing usable. When the host needs to
// prepare the detector first, this blocks until it is ready.
func (g *Gateway) DetectLanguage(ctx context.Context, text string) (string, error) {
	d := g.surface.Detector
	if d == nil {
		return "", errors.NewCapabilityUnavailable(DetectorName)
	}

	caps, err := d.Capabilities(ctx)
	if err != nil {
		return "", hostFailure("detect", err)
	}

	var inst host.DetectorInstance
	switch caps.Status {
	case host.Readily:
		inst, err = d.Create(ctx, host.DetectorOptions{})
		if err != nil {
			return "", hostFailure("detect", err)
		}
	case host.AfterPreparation:
		g.logger.Info("language detector needs preparation")
		inst, err = d.Create(ctx, host.DetectorOptions{Monitor: g.monitor})
		if err != nil {
			return "", hostFailure("detect", err)
		}
		if err := inst.Ready(ctx); err != nil {
			closeInstance(g.logger, inst)
			return "", hostFailure("detect", err)
		}
		g.logger.Info("language detector ready")
	default:
		return "", errors.NewCapabilityUnavailable(DetectorName)
	}
	defer closeInstance(g.logger, inst)

	start := time.Now()
	results, err := inst.Detect(ctx, text)
	g.logger.Debug("host detect",
		zap.Int("chars", len(text)),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	if err != nil {
		return "", hostFailure("detect", err)
	}
	if len(results) == 0 {
		return UnknownLanguage, nil
	}
	return BaseCode(results[0].DetectedLanguage), nil
}

// Summarize returns a key-point markdown summary of medium length.
func (g *Gateway) Summarize(ctx context.Context, text string) (string, error) {
	s := g.surface.Summarizer
	if s == nil {
		return "", errors.NewCapabilityUnavailable(SummarizerName)
	}

	caps, err := s.Capabilities(ctx)
	if err != nil {
		return "", hostFailure("summarize", err)
	}
	if caps.Available == host.No || caps.Available == "" {
		return "", errors.NewCapabilityUnavailable(SummarizerName)
	}

	inst, err := s.Create(ctx, host.SummarizerOptions{
		Type:   host.SummaryTypeKeyPoints,
		Format: host.SummaryFormatMarkdown,
		Length: host.SummaryLengthMedium,
	})
	if err != nil {
		return "", hostFailure("summarize", err)
	}
	defer closeInstance(g.logger, inst)

	start := time.Now()
	summary, err := inst.Summarize(ctx, text)
	g.logger.Debug("host summarize",
		zap.Int("chars", len(text)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	if err != nil {
		return "", hostFailure("summarize", err)
	}
	return summary, nil
}

// Translate translates text from source to target.
func (g *Gateway) Translate(ctx context.Context, text, source, target string) (string, error) {
	t := g.surface.Translator
	if t == nil {
		return "", errors.NewCapabilityUnavailable(TranslatorName)
	}

	caps, err := t.Capabilities(ctx)
	if err != nil {
		return "", hostFailure("translate", err)
	}
	if caps == nil || caps.LanguagePairAvailable(source, target) == host.No {
		return "", errors.NewUnsupportedLanguagePair(LanguageName(source), LanguageName(target))
	}

	inst, err := t.Create(ctx, host.TranslatorOptions{
		SourceLanguage: source,
		TargetLanguage: target,
	})
	if err != nil {
		return "", hostFailure("translate", err)
	}
	defer closeInstance(g.logger, inst)

	start := time.Now()
	out, err := inst.Translate(ctx, text)
	g.logger.Debug("host translate",
		zap.String("source", source),
		zap.String("target", target),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	if err != nil {
		return "", hostFailure("translate", err)
	}
	return out, nil
}

func (g *Gateway) monitor(p host.Progress) {
	g.logger.Info("language detector download",
		zap.Int64("loaded", p.Loaded),
		zap.Int64("total", p.Total))
	if g.observer != nil {
		g.observer(p)
	}
}

// hostFailure keeps ParleyErrors from the host as-is and wraps anything else.
func hostFailure(operation string, err error) error {
	var pErr *errors.ParleyError
	if stderrors.As(err, &pErr) {
		return pErr
	}
	return errors.NewHostOperationFailed(operation, err)
}

func closeInstance(logger *zap.Logger, inst any) {
	c, ok := inst.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warn("failed to release host instance", zap.Error(err))
	}
}
