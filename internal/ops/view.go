package ops

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/hpungsan/parley/internal/conversation"
	"github.com/hpungsan/parley/internal/gateway"
)

// summaryLanguage is the only language the summarizer is offered for.
const summaryLanguage = "en"

// View is everything needed to render the conversation.
type View struct {
	State    gateway.State `json:"state"`
	Missing  []string      `json:"missing,omitempty"`
	Error    string        `json:"error,omitempty"`
	Version  uint64        `json:"version"`
	Messages []MessageView `json:"messages"`
}

// Available reports whether the conversation screen should be shown.
func (v View) Available() bool {
	return v.State == gateway.StateAvailable
}

// MessageView is one rendered message.
type MessageView struct {
	ID           string            `json:"id"`
	Text         string            `json:"text"`
	Language     string            `json:"language"`
	LanguageName string            `json:"language_name"`
	Summary      string            `json:"summary,omitempty"`
	CanSummarize bool              `json:"can_summarize"`
	Summarizing  bool              `json:"summarizing"`
	Translating  bool              `json:"translating"`
	Translations []TranslationView `json:"translations"`
	Targets      []TargetOption    `json:"targets"`
}

// TranslationView is one stored translation.
type TranslationView struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// TargetOption is one entry of the translate selector.
type TargetOption struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Disabled bool   `json:"disabled"`
}

// View builds the view model from the current snapshot.
func (s *Session) View() View {
	v := View{
		State:   s.availability.State,
		Missing: append([]string(nil), s.availability.Missing...),
		Error:   s.Error(),
	}
	if !v.Available() {
		return v
	}

	snap := s.store.Snapshot()
	v.Version = snap.Version
	v.Messages = make([]MessageView, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		v.Messages = append(v.Messages, s.messageView(snap, m))
	}
	return v
}

func (s *Session) messageView(snap *conversation.Snapshot, m conversation.Message) MessageView {
	summarizing := snap.Busy(conversation.Summarizing, m.ID)
	mv := MessageView{
		ID:           m.ID,
		Text:         m.Text,
		Language:     m.Language,
		LanguageName: gateway.LanguageName(m.Language),
		Summary:      m.Summary,
		Summarizing:  summarizing,
		Translating:  snap.Busy(conversation.Translating, m.ID),
		CanSummarize: s.canSummarize(m, summarizing),
		Translations: make([]TranslationView, 0, len(m.Translations)),
		Targets:      make([]TargetOption, 0, len(s.targets)),
	}

	for code, text := range m.Translations {
		mv.Translations = append(mv.Translations, TranslationView{
			Code: code,
			Name: gateway.LanguageName(code),
			Text: text,
		})
	}
	slices.SortFunc(mv.Translations, func(a, b TranslationView) int {
		return strings.Compare(a.Code, b.Code)
	})

	for _, code := range s.targets {
		disabled := gateway.SameLanguage(code, m.Language) ||
			m.HasTranslation(code) ||
			s.inFlight(flightKey{kind: conversation.Translating, id: m.ID, target: code})
		mv.Targets = append(mv.Targets, TargetOption{
			Code:     code,
			Name:     gateway.LanguageName(code),
			Disabled: disabled,
		})
	}
	return mv
}

// canSummarize offers summaries for long English texts that have none yet.
func (s *Session) canSummarize(m conversation.Message, summarizing bool) bool {
	if !gateway.SameLanguage(m.Language, summaryLanguage) {
		return false
	}
	return utf8.RuneCountInString(m.Text) > s.minChars && !m.HasSummary() && !summarizing
}
