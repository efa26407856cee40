package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_ComponentFieldAndLevel(t *testing.T) {
	l := New("api", Options{Level: "warn", Format: "json"})
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.Info("hidden")
	l.Warn("shown")

	var rec map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected a single json record, got %q: %v", buf.String(), err)
	}
	if rec["component"] != "api" {
		t.Fatalf("expected component=api, got %+v", rec)
	}
	if rec["msg"] != "shown" {
		t.Fatalf("unexpected message %+v", rec)
	}
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	l := New("", Options{Level: "loud"})
	if l.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %s", l.GetLevel())
	}
}
