package ops

import (
	"context"
	"fmt"
	"testing"

	"github.com/hpungsan/parley/internal/conversation"
	"github.com/hpungsan/parley/internal/errors"
	"github.com/hpungsan/parley/internal/gateway"
	"github.com/hpungsan/parley/internal/host/hosttest"
)

func TestSummarize_StoresSummary(t *testing.T) {
	h := hosttest.New(nil)
	h.Summarizer.Fn = func(context.Context, string) (string, error) {
		return "- growth everywhere", nil
	}
	s := newTestSession(t, h)
	ctx := context.Background()

	sent, err := s.Send(ctx, SendInput{Text: longEnglish})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !s.View().Messages[0].CanSummarize {
		t.Fatal("long English text should offer summarize")
	}

	out, err := s.Summarize(ctx, SummarizeInput{ID: sent.ID})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if out.Summary != "- growth everywhere" {
		t.Errorf("Summary = %q", out.Summary)
	}

	mv := s.View().Messages[0]
	if mv.Summary != "- growth everywhere" {
		t.Errorf("stored summary = %q", mv.Summary)
	}
	if mv.CanSummarize {
		t.Error("summarize should be hidden once summarized")
	}
	if mv.Summarizing {
		t.Error("summarizing flag should be cleared")
	}
}

func TestSummarize_NotFound(t *testing.T) {
	s := newTestSession(t, hosttest.New(nil))
	_, err := s.Summarize(context.Background(), SummarizeInput{ID: "nope"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestSummarize_FailureLeavesStore(t *testing.T) {
	h := hosttest.New(nil)
	h.Summarizer.Fn = func(context.Context, string) (string, error) {
		return "", fmt.Errorf("out of memory")
	}
	s := newTestSession(t, h)
	ctx := context.Background()

	sent, _ := s.Send(ctx, SendInput{Text: longEnglish})
	before := s.Store().Snapshot()

	_, err := s.Summarize(ctx, SummarizeInput{ID: sent.ID})
	if !errors.Is(err, errors.ErrHostOperationFailed) {
		t.Fatalf("err = %v, want HOST_OPERATION_FAILED", err)
	}

	msg, _ := s.Store().Get(sent.ID)
	if msg.HasSummary() {
		t.Error("failed summarize must not store a summary")
	}
	snap := s.Store().Snapshot()
	if snap.Busy(conversation.Summarizing, sent.ID) {
		t.Error("summarizing flag should be false after failure")
	}
	if snap.Version == before.Version {
		t.Error("busy flag changes should publish snapshots")
	}
	if s.Error() == "" {
		t.Error("banner should be set")
	}
	if s.Availability().State != gateway.StateAvailable {
		t.Error("runtime failures must not change availability")
	}
}

func TestSummarize_ConflictWhileRunning(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	h := hosttest.New(nil)
	h.Summarizer.Fn = func(context.Context, string) (string, error) {
		close(started)
		<-release
		return "- done", nil
	}
	s := newTestSession(t, h)
	ctx := context.Background()
	sent, _ := s.Send(ctx, SendInput{Text: longEnglish})

	done := make(chan error, 1)
	go func() {
		_, err := s.Summarize(ctx, SummarizeInput{ID: sent.ID})
		done <- err
	}()
	<-started

	if !s.View().Messages[0].Summarizing {
		t.Error("summarizing flag should be set while running")
	}
	if s.View().Messages[0].CanSummarize {
		t.Error("summarize should be hidden while running")
	}
	_, err := s.Summarize(ctx, SummarizeInput{ID: sent.ID})
	if !errors.Is(err, errors.ErrConflict) {
		t.Errorf("second Summarize err = %v, want CONFLICT", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Summarize error = %v", err)
	}
	if h.Summarizer.Calls() != 1 {
		t.Errorf("host calls = %d, want 1", h.Summarizer.Calls())
	}
}
