package tools

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBuiltinNames(t *testing.T) {
	got := Builtin().Names()
	want := []string{"add_numbers", "current_time"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResolve(t *testing.T) {
	c := Builtin()

	resolved, err := c.Resolve([]string{"current_time", "add_numbers"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved[0].Name() != "current_time" || resolved[1].Name() != "add_numbers" {
		t.Errorf("Resolve kept wrong order: %s, %s", resolved[0].Name(), resolved[1].Name())
	}

	_, err = c.Resolve([]string{"add_numbers", "launch_rockets"})
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("Resolve unknown = %v, want ErrUnknownTool", err)
	}
}

func TestAddNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`{"a": 1, "b": 2}`, "3"},
		{`{"a": 1.5, "b": -0.25}`, "1.25"},
	}

	for _, tt := range tests {
		got, err := (&AddNumbers{}).Execute(context.Background(), tt.input)
		if err != nil {
			t.Fatalf("Execute(%s): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Execute(%s) = %q, want %q", tt.input, got, tt.want)
		}
	}

	if _, err := (&AddNumbers{}).Execute(context.Background(), "not json"); err == nil {
		t.Error("expected error for malformed input")
	}
}

func TestCurrentTime(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ct := &CurrentTime{now: func() time.Time { return fixed }}

	got, err := ct.Execute(context.Background(), `{"timezone": ""}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "2025-03-01T12:00:00Z" {
		t.Errorf("Execute = %q, want %q", got, "2025-03-01T12:00:00Z")
	}

	if _, err := ct.Execute(context.Background(), `{"timezone": "Mars/Olympus"}`); err == nil {
		t.Error("expected error for unknown timezone")
	}
}
