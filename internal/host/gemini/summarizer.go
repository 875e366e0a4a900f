package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/parley/internal/host"
)

const summaryPrompt = `Summarize the text between the markers.
%s
Write the summary in the language of the text and reply with the summary only.

---
%s
---`

// Summarizer summarizes with a Gemini model.
type Summarizer struct {
	gen Generator
}

// Capabilities implements host.Summarizer.
func (s *Summarizer) Capabilities(context.Context) (host.SummarizerCapabilities, error) {
	return host.SummarizerCapabilities{Available: host.Readily}, nil
}

// Create implements host.Summarizer.
func (s *Summarizer) Create(_ context.Context, opts host.SummarizerOptions) (host.SummarizerInstance, error) {
	return &summarizerInstance{gen: s.gen, opts: opts}, nil
}

type summarizerInstance struct {
	gen  Generator
	opts host.SummarizerOptions
}

func (i *summarizerInstance) Summarize(ctx context.Context, text string) (string, error) {
	out, err := i.gen.Generate(ctx, fmt.Sprintf(summaryPrompt, instructions(i.opts), text), nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// instructions turns summarizer options into prompt lines.
func instructions(opts host.SummarizerOptions) string {
	var lines []string

	switch opts.Type {
	case host.SummaryTypeKeyPoints, "":
		lines = append(lines, "List the key points as bullet points.")
	case "tldr":
		lines = append(lines, "Give a short overview a busy reader can skim.")
	case "headline":
		lines = append(lines, "Write a single headline.")
	default:
		lines = append(lines, "Write a "+opts.Type+" summary.")
	}

	switch opts.Length {
	case "short":
		lines = append(lines, "Use at most three bullet points or one sentence.")
	case host.SummaryLengthMedium, "":
		lines = append(lines, "Use at most five bullet points or one paragraph.")
	case "long":
		lines = append(lines, "Use at most seven bullet points or two paragraphs.")
	}

	if opts.Format == host.SummaryFormatMarkdown || opts.Format == "" {
		lines = append(lines, "Format the result as markdown.")
	} else {
		lines = append(lines, "Use plain text without markup.")
	}
	return strings.Join(lines, "\n")
}
