package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "read all (0)", maxLines: 0, expected: expectedAll},
		{name: "read all (negative)", maxLines: -1, expected: expectedAll},
		{name: "read partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "read exactly all (10)", maxLines: 10, expected: expectedAll},
		{name: "read more than exists (20)", maxLines: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Errorf("Read() = %v, want nil", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Entry
	}{
		{
			name:  "error with component",
			input: `{"level":"error","component":"reconcile","collection":"queue","error":"connection refused","time":"2026-10-18T14:32:15Z","message":"fetch failed"}`,
			want: Entry{
				Time:      time.Date(2026, 10, 18, 14, 32, 15, 0, time.UTC),
				Level:     "error",
				Component: "reconcile",
				Message:   "fetch failed",
				Err:       "connection refused",
			},
		},
		{
			name:  "info without time",
			input: `{"level":"INFO","message":"connected"}`,
			want:  Entry{Level: "info", Message: "connected"},
		},
		{
			name:  "not json",
			input: "panic: something broke",
			want:  Entry{Raw: "panic: something broke"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if !got.Time.Equal(tt.want.Time) {
				t.Errorf("Parse().Time = %v, want %v", got.Time, tt.want.Time)
			}
			got.Time, tt.want.Time = time.Time{}, time.Time{}
			if got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	e := Entry{Level: "warn", Component: "reconcile", Message: "dropped push event", Err: "unknown event type"}
	if got, want := Format(e), "WARN [reconcile] dropped push event: unknown event type"; got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
	if got := Format(Entry{Raw: "plain"}); got != "plain" {
		t.Errorf("Format(raw) = %q", got)
	}
}

func TestTailSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tonearm.log")
	data := `{"level":"info","message":"one"}` + "\n\n" + `{"level":"error","message":"two","error":"boom"}` + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	entries, err := Tail(path, 5)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Tail() returned %d entries, want 2", len(entries))
	}
	if entries[1].Err != "boom" || entries[0].Message != "one" {
		t.Errorf("Tail() = %+v", entries)
	}
}
