package xlog

import (
	"bytes"
	"strings"
	"testing"
)

type secretValue struct{}

func (secretValue) Redacted() string { return "[redacted:test]" }

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf)
	l.SetLevel(Warning)

	l.Infof("should not appear")
	if strings.Contains(buf.String(), "should not appear") {
		t.Error("Infof logged below the configured threshold")
	}

	l.Warningf("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Error("Warningf did not log at the configured threshold")
	}
}

func TestWithRedactsSecretFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf)
	derived := l.With(map[string]any{"key": secretValue{}})
	derived.Infof("derived logger line")

	out := buf.String()
	if strings.Contains(out, "secretValue") && !strings.Contains(out, "[redacted:test]") {
		t.Error("With() did not redact a Redactor-implementing field value")
	}
	if !strings.Contains(out, "[redacted:test]") {
		t.Error("expected the redacted placeholder to appear in the log line")
	}
}

func TestWithDoesNotMutateReceiver(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf)
	_ = l.With(map[string]any{"a": 1})
	l.Infof("base logger line")
	if strings.Contains(buf.String(), "a:1") {
		t.Error("With() mutated the receiver's fields")
	}
}
