package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, json := range []bool{true, false} {
		log, err := New("debug", json)
		if err != nil {
			t.Fatalf("New(debug, %v): %v", json, err)
		}
		if !log.Core().Enabled(zapcore.DebugLevel) {
			t.Fatalf("expected debug to be enabled")
		}
	}

	log, err := New("warn", false)
	if err != nil {
		t.Fatalf("New(warn): %v", err)
	}
	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be filtered at warn level")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("chatty", false); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
