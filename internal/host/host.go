// Package host defines the capability surface parley expects from its host:
// a language detector, a summarizer and a translator. Implementations are
// opaque; parley only sequences calls to them.
package host

import "context"

// Availability is the host's answer to "can this capability be used here?".
type Availability string

const (
	No               Availability = "no"
	Readily          Availability = "readily"
	AfterPreparation Availability = "after-preparation"
)

// Progress reports model download progress during preparation.
type Progress struct {
	Loaded int64
	Total  int64
}

// Monitor receives Progress events while an instance is being prepared.
type Monitor func(Progress)

// Detection is one ranked result from a detector.
type Detection struct {
	DetectedLanguage string  `json:"detectedLanguage"`
	Confidence       float64 `json:"confidence"`
}

// DetectorCapabilities describes on-device detector support.
type DetectorCapabilities struct {
	Status Availability
}

// DetectorOptions configures detector creation.
type DetectorOptions struct {
	// Monitor is only invoked when preparation is required.
	Monitor Monitor
}

// Detector is the language detection capability.
type Detector interface {
	Capabilities(ctx context.Context) (DetectorCapabilities, error)
	Create(ctx context.Context, opts DetectorOptions) (DetectorInstance, error)
}

// DetectorInstance runs detection. Ready blocks until preparation finishes.
type DetectorInstance interface {
	Ready(ctx context.Context) error
	// Detect returns results ordered by confidence, highest first.
	Detect(ctx context.Context, text string) ([]Detection, error)
}

// Summary options.
const (
	SummaryTypeKeyPoints  = "key-points"
	SummaryFormatMarkdown = "markdown"
	SummaryLengthMedium   = "medium"
)

// SummarizerCapabilities describes on-device summarizer support.
type SummarizerCapabilities struct {
	Available Availability
}

// SummarizerOptions configures summarizer creation.
type SummarizerOptions struct {
	Type   string
	Format string
	Length string
}

// Summarizer is the summarization capability.
type Summarizer interface {
	Capabilities(ctx context.Context) (SummarizerCapabilities, error)
	Create(ctx context.Context, opts SummarizerOptions) (SummarizerInstance, error)
}

// SummarizerInstance produces a single summary for a text.
type SummarizerInstance interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// TranslatorCapabilities answers language pair questions.
type TranslatorCapabilities interface {
	LanguagePairAvailable(source, target string) Availability
}

// TranslatorOptions binds a translator instance to a language pair.
type TranslatorOptions struct {
	SourceLanguage string
	TargetLanguage string
}

// Translator is the translation capability.
type Translator interface {
	Capabilities(ctx context.Context) (TranslatorCapabilities, error)
	Create(ctx context.Context, opts TranslatorOptions) (TranslatorInstance, error)
}

// TranslatorInstance translates text for its bound language pair.
type TranslatorInstance interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Surface is what a host exposes. A nil field means the capability is absent.
type Surface struct {
	Detector   Detector
	Summarizer Summarizer
	Translator Translator
}

// PairFunc adapts a function to TranslatorCapabilities.
type PairFunc func(source, target string) Availability

// LanguagePairAvailable implements TranslatorCapabilities.
func (f PairFunc) LanguagePairAvailable(source, target string) Availability {
	return f(source, target)
}
