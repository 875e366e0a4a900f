// Package hosttest provides a scriptable in-memory host for tests.
package hosttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/hpungsan/parley/internal/host"
)

// Host bundles the three fake capabilities.
type Host struct {
	Detector   *Detector
	Summarizer *Summarizer
	Translator *Translator
}

// New returns a host where every capability is readily available.
// Detection uses the byText table; unknown texts detect as English.
func New(byText map[string]string) *Host {
	return &Host{
		Detector:   NewDetector(byText),
		Summarizer: &Summarizer{},
		Translator: &Translator{},
	}
}

// Surface exposes the non-nil fakes as a host.Surface.
func (h *Host) Surface() host.Surface {
	var s host.Surface
	if h.Detector != nil {
		s.Detector = h.Detector
	}
	if h.Summarizer != nil {
		s.Summarizer = h.Summarizer
	}
	if h.Translator != nil {
		s.Translator = h.Translator
	}
	return s
}

// Detector is a fake language detector.
type Detector struct {
	mu sync.Mutex

	// Status defaults to readily.
	Status    host.Availability
	CapErr    error
	DetectErr error
	ReadyErr  error
	// Progress events are sent to the monitor when Status is after-preparation.
	Progress []host.Progress
	// Results maps text to ranked detections. Missing texts use Default.
	Results map[string][]host.Detection
	Default []host.Detection

	created      int
	monitored    bool
	readyCalls   int
	detectCalls  int
	closedCounts int
}

// NewDetector builds a detector answering from a text -> language table.
func NewDetector(byText map[string]string) *Detector {
	d := &Detector{
		Results: make(map[string][]host.Detection, len(byText)),
		Default: []host.Detection{{DetectedLanguage: "en", Confidence: 0.9}},
	}
	for text, lang := range byText {
		d.Results[text] = []host.Detection{
			{DetectedLanguage: lang, Confidence: 0.97},
			{DetectedLanguage: "und", Confidence: 0.01},
		}
	}
	return d
}

// Capabilities implements host.Detector.
func (d *Detector) Capabilities(_ context.Context) (host.DetectorCapabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.CapErr != nil {
		return host.DetectorCapabilities{}, d.CapErr
	}
	status := d.Status
	if status == "" {
		status = host.Readily
	}
	return host.DetectorCapabilities{Status: status}, nil
}

// Create implements host.Detector.
func (d *Detector) Create(_ context.Context, opts host.DetectorOptions) (host.DetectorInstance, error) {
	d.mu.Lock()
	d.created++
	progress := append([]host.Progress(nil), d.Progress...)
	prepare := d.Status == host.AfterPreparation
	if opts.Monitor != nil {
		d.monitored = true
	}
	d.mu.Unlock()

	if prepare && opts.Monitor != nil {
		for _, p := range progress {
			opts.Monitor(p)
		}
	}
	return &detectorInstance{d: d}, nil
}

// Created returns how many instances were created.
func (d *Detector) Created() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created
}

// Monitored reports whether any Create call carried a progress monitor.
func (d *Detector) Monitored() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.monitored
}

// ReadyCalls returns how many times Ready was awaited.
func (d *Detector) ReadyCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readyCalls
}

type detectorInstance struct {
	d *Detector
}

func (i *detectorInstance) Ready(ctx context.Context) error {
	i.d.mu.Lock()
	i.d.readyCalls++
	err := i.d.ReadyErr
	i.d.mu.Unlock()
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (i *detectorInstance) Detect(_ context.Context, text string) ([]host.Detection, error) {
	i.d.mu.Lock()
	defer i.d.mu.Unlock()
	i.d.detectCalls++
	if i.d.DetectErr != nil {
		return nil, i.d.DetectErr
	}
	if res, ok := i.d.Results[text]; ok {
		return append([]host.Detection(nil), res...), nil
	}
	return append([]host.Detection(nil), i.d.Default...), nil
}

func (i *detectorInstance) Close() error {
	i.d.mu.Lock()
	i.d.closedCounts++
	i.d.mu.Unlock()
	return nil
}

// Summarizer is a fake summarizer.
type Summarizer struct {
	mu sync.Mutex

	// Available defaults to readily.
	Available host.Availability
	CapErr    error
	// Fn produces the summary. Defaults to a single bullet echoing the text length.
	Fn func(ctx context.Context, text string) (string, error)

	options []host.SummarizerOptions
	calls   int
}

// Capabilities implements host.Summarizer.
func (s *Summarizer) Capabilities(_ context.Context) (host.SummarizerCapabilities, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CapErr != nil {
		return host.SummarizerCapabilities{}, s.CapErr
	}
	available := s.Available
	if available == "" {
		available = host.Readily
	}
	return host.SummarizerCapabilities{Available: available}, nil
}

// Create implements host.Summarizer.
func (s *Summarizer) Create(_ context.Context, opts host.SummarizerOptions) (host.SummarizerInstance, error) {
	s.mu.Lock()
	s.options = append(s.options, opts)
	s.mu.Unlock()
	return &summarizerInstance{s: s}, nil
}

// Options returns the options of every Create call.
func (s *Summarizer) Options() []host.SummarizerOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]host.SummarizerOptions(nil), s.options...)
}

// Calls returns how many summaries were requested.
func (s *Summarizer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type summarizerInstance struct {
	s *Summarizer
}

func (i *summarizerInstance) Summarize(ctx context.Context, text string) (string, error) {
	i.s.mu.Lock()
	i.s.calls++
	fn := i.s.Fn
	i.s.mu.Unlock()
	if fn != nil {
		return fn(ctx, text)
	}
	return fmt.Sprintf("- a text of %d bytes", len(text)), nil
}

// Translator is a fake translator.
type Translator struct {
	mu sync.Mutex

	CapErr error
	// Unsupported lists "src>tgt" pairs that report "no".
	Unsupported map[string]bool
	// Fn produces the translation. Defaults to "[tgt] text".
	Fn func(ctx context.Context, text, source, target string) (string, error)

	created int
	closed  int
}

// Pair formats a key for Unsupported.
func Pair(source, target string) string {
	return source + ">" + target
}

// Capabilities implements host.Translator.
func (t *Translator) Capabilities(_ context.Context) (host.TranslatorCapabilities, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.CapErr != nil {
		return nil, t.CapErr
	}
	unsupported := make(map[string]bool, len(t.Unsupported))
	for k, v := range t.Unsupported {
		unsupported[k] = v
	}
	return host.PairFunc(func(source, target string) host.Availability {
		if unsupported[Pair(source, target)] {
			return host.No
		}
		return host.Readily
	}), nil
}

// Create implements host.Translator.
func (t *Translator) Create(_ context.Context, opts host.TranslatorOptions) (host.TranslatorInstance, error) {
	t.mu.Lock()
	t.created++
	t.mu.Unlock()
	return &translatorInstance{t: t, opts: opts}, nil
}

// Created returns how many instances were created.
func (t *Translator) Created() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.created
}

// Closed returns how many instances were closed.
func (t *Translator) Closed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

type translatorInstance struct {
	t    *Translator
	opts host.TranslatorOptions
}

func (i *translatorInstance) Translate(ctx context.Context, text string) (string, error) {
	i.t.mu.Lock()
	fn := i.t.Fn
	i.t.mu.Unlock()
	if fn != nil {
		return fn(ctx, text, i.opts.SourceLanguage, i.opts.TargetLanguage)
	}
	return fmt.Sprintf("[%s] %s", i.opts.TargetLanguage, text), nil
}

func (i *translatorInstance) Close() error {
	i.t.mu.Lock()
	i.t.closed++
	i.t.mu.Unlock()
	return nil
}
