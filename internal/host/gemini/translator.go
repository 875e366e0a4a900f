package gemini

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/hpungsan/parley/internal/host"
)

const translatePrompt = `Translate the text between the markers from %s to %s.
Keep line breaks and markdown. Reply with the translation only.

---
%s
---`

// supported lists the base languages the translator accepts on either side.
var supported = map[string]bool{
	"ar": true, "bn": true, "cs": true, "da": true, "de": true, "el": true,
	"en": true, "es": true, "fi": true, "fr": true, "he": true, "hi": true,
	"hu": true, "id": true, "it": true, "ja": true, "ko": true, "nl": true,
	"no": true, "pl": true, "pt": true, "ro": true, "ru": true, "sv": true,
	"th": true, "tr": true, "uk": true, "vi": true, "zh": true,
}

// Translator translates with a Gemini model.
type Translator struct {
	gen Generator
}

// Capabilities implements host.Translator.
func (t *Translator) Capabilities(context.Context) (host.TranslatorCapabilities, error) {
	return host.PairFunc(pairAvailable), nil
}

// Create implements host.Translator.
func (t *Translator) Create(_ context.Context, opts host.TranslatorOptions) (host.TranslatorInstance, error) {
	if pairAvailable(opts.SourceLanguage, opts.TargetLanguage) == host.No {
		return nil, fmt.Errorf("unsupported language pair %s -> %s", opts.SourceLanguage, opts.TargetLanguage)
	}
	return &translatorInstance{gen: t.gen, opts: opts}, nil
}

type translatorInstance struct {
	gen  Generator
	opts host.TranslatorOptions
}

func (i *translatorInstance) Translate(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(translatePrompt, englishName(i.opts.SourceLanguage), englishName(i.opts.TargetLanguage), text)
	out, err := i.gen.Generate(ctx, prompt, lowTemperature())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func pairAvailable(source, target string) host.Availability {
	src, ok := baseOf(source)
	if !ok {
		return host.No
	}
	tgt, ok := baseOf(target)
	if !ok || src == tgt {
		return host.No
	}
	return host.Readily
}

// baseOf returns the supported base language of code.
func baseOf(code string) (string, bool) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	return base.String(), supported[base.String()]
}

func englishName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}
