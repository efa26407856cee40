package chat

import (
	"context"
	"errors"
	"testing"

	"polykitchen/internal/logger"
)

type stubAssistant struct {
	reply   string
	err     error
	lastMsg string
	lastUID string
}

func (s *stubAssistant) Chat(_ context.Context, message, userID string) (string, error) {
	s.lastMsg, s.lastUID = message, userID
	return s.reply, s.err
}

func TestAsk(t *testing.T) {
	api := &stubAssistant{reply: "Рекомендую бешбармак"}
	svc := New(api, "guest", logger.Discard())

	got, err := svc.Ask(context.Background(), "  Что посоветуете? ", "")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if got.Failed || got.Text != "Рекомендую бешбармак" {
		t.Fatalf("unexpected reply %+v", got)
	}
	if api.lastMsg != "Что посоветуете?" || api.lastUID != "guest" {
		t.Fatalf("unexpected request %q %q", api.lastMsg, api.lastUID)
	}
}

func TestAsk_FailureBecomesApology(t *testing.T) {
	svc := New(&stubAssistant{err: errors.New("502")}, "guest", logger.Discard())
	got, err := svc.Ask(context.Background(), "hi", "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !got.Failed || got.Text != Apology {
		t.Fatalf("unexpected reply %+v", got)
	}
}

func TestAsk_EmptyMessage(t *testing.T) {
	api := &stubAssistant{}
	_, err := New(api, "guest", logger.Discard()).Ask(context.Background(), " ", "")
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected empty message error, got %v", err)
	}
	if api.lastMsg != "" {
		t.Fatalf("expected no backend call")
	}
}
