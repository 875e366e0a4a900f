package ops

import (
	"context"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/hpungsan/parley/internal/conversation"
	"github.com/hpungsan/parley/internal/db"
	"github.com/hpungsan/parley/internal/gateway"
	"github.com/hpungsan/parley/internal/host/hosttest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const longEnglish = "The quarterly report shows steady growth across every region, " +
	"with particular strength in the northern markets where new partnerships " +
	"doubled the number of active customers since the spring."

func newTestSession(t *testing.T, h *hosttest.Host) *Session {
	t.Helper()
	return NewSession(gateway.New(h.Surface()), conversation.NewStore(), Options{})
}

// memJournal collects journal records in memory.
type memJournal struct {
	mu    sync.Mutex
	calls []db.Call
	err   error
}

func (j *memJournal) Record(_ context.Context, c db.Call) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, c)
	return j.err
}

func (j *memJournal) Calls() []db.Call {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]db.Call(nil), j.calls...)
}

func TestNewSession_Defaults(t *testing.T) {
	s := newTestSession(t, hosttest.New(nil))

	want := []string{"en", "pt", "es", "ru", "tr", "fr"}
	got := s.Targets()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Targets() = %v, want %v", got, want)
	}
	if s.minChars != 150 {
		t.Errorf("minChars = %d, want 150", s.minChars)
	}
}

func TestNewSession_NormalizesTargets(t *testing.T) {
	h := hosttest.New(nil)
	s := NewSession(gateway.New(h.Surface()), conversation.NewStore(), Options{
		Targets: []string{" ES", "es", "", "ru"},
	})

	if got := strings.Join(s.Targets(), ","); got != "es,ru" {
		t.Errorf("Targets() = %s, want es,ru", got)
	}
}

func TestAvailability(t *testing.T) {
	s := newTestSession(t, hosttest.New(nil))
	if got := s.Availability(); got.State != gateway.StateAvailable || len(got.Missing) != 0 {
		t.Errorf("Availability() = %+v, want available", got)
	}

	h := hosttest.New(nil)
	h.Translator = nil
	s = newTestSession(t, h)
	got := s.Availability()
	if got.State != gateway.StateUnavailable {
		t.Fatalf("State = %q, want unavailable", got.State)
	}
	if len(got.Missing) != 1 || got.Missing[0] != gateway.TranslatorName {
		t.Errorf("Missing = %v, want [%s]", got.Missing, gateway.TranslatorName)
	}
}

func TestDismissError(t *testing.T) {
	s := newTestSession(t, hosttest.New(nil))
	s.setError(context.DeadlineExceeded)
	if s.Error() == "" {
		t.Fatal("banner should be set")
	}
	s.DismissError()
	if s.Error() != "" {
		t.Errorf("Error() = %q after dismiss, want empty", s.Error())
	}
}

func TestBannerReplacedByNewError(t *testing.T) {
	h := hosttest.New(map[string]string{"Bonjour": "fr"})
	h.Translator.Unsupported = map[string]bool{
		hosttest.Pair("fr", "es"): true,
		hosttest.Pair("fr", "ru"): true,
	}
	s := newTestSession(t, h)
	ctx := context.Background()

	out, _ := s.Send(ctx, SendInput{Text: "Bonjour"})
	_, _ = s.Translate(ctx, TranslateInput{ID: out.ID, Target: "es"})
	_, _ = s.Translate(ctx, TranslateInput{ID: out.ID, Target: "ru"})

	if got := s.Error(); !strings.Contains(got, "Russian") {
		t.Errorf("Error() = %q, want the latest failure", got)
	}
}

func TestRecord_JournalFailureIgnored(t *testing.T) {
	j := &memJournal{err: context.Canceled}
	h := hosttest.New(nil)
	s := NewSession(gateway.New(h.Surface()), conversation.NewStore(), Options{Journal: j})

	out, err := s.Send(context.Background(), SendInput{Text: "hello"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if out.Error != "" {
		t.Errorf("journal failure leaked into output: %q", out.Error)
	}
	if s.Error() != "" {
		t.Errorf("journal failure leaked into banner: %q", s.Error())
	}
	if len(j.Calls()) != 1 {
		t.Errorf("journal calls = %d, want 1", len(j.Calls()))
	}
}

func TestFormatPurgeMessage(t *testing.T) {
	days := 7
	tests := []struct {
		count int
		days  *int
		want  string
	}{
		{0, nil, "No journal entries to purge"},
		{1, nil, "Permanently deleted 1 journal entry"},
		{3, &days, "Permanently deleted 3 journal entries (recorded more than 7 days ago)"},
	}
	for _, tt := range tests {
		if got := formatPurgeMessage(tt.count, tt.days); got != tt.want {
			t.Errorf("formatPurgeMessage(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}
