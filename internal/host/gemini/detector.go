package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hpungsan/parley/internal/host"
)

const detectPrompt = `Identify the language of the text between the markers.
Reply with a JSON array of up to three objects, most likely first, each with
"language" (a BCP 47 code such as "en" or "pt-BR") and "confidence" (0 to 1).
Reply with [] if the text has no recognizable language.

---
%s
---`

// Detector detects languages with a Gemini model. The model needs no
// download, so it is always readily available.
type Detector struct {
	gen Generator
}

// Capabilities implements host.Detector.
func (d *Detector) Capabilities(context.Context) (host.DetectorCapabilities, error) {
	return host.DetectorCapabilities{Status: host.Readily}, nil
}

// Create implements host.Detector.
func (d *Detector) Create(context.Context, host.DetectorOptions) (host.DetectorInstance, error) {
	return d, nil
}

// Ready implements host.DetectorInstance.
func (d *Detector) Ready(ctx context.Context) error {
	return ctx.Err()
}

// Detect implements host.DetectorInstance.
func (d *Detector) Detect(ctx context.Context, text string) ([]host.Detection, error) {
	cfg := lowTemperature()
	cfg.ResponseMIMEType = "application/json"

	out, err := d.gen.Generate(ctx, fmt.Sprintf(detectPrompt, text), cfg)
	if err != nil {
		return nil, err
	}
	return parseDetections(out)
}

type detection struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// parseDetections reads the model's JSON reply, tolerating a markdown fence.
func parseDetections(out string) ([]host.Detection, error) {
	out = strings.TrimSpace(out)
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	out = strings.TrimSpace(out)

	var raw []detection
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return nil, fmt.Errorf("parse detection reply: %w", err)
	}

	results := make([]host.Detection, 0, len(raw))
	for _, r := range raw {
		lang := strings.TrimSpace(r.Language)
		if lang == "" {
			continue
		}
		results = append(results, host.Detection{DetectedLanguage: lang, Confidence: r.Confidence})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results, nil
}
