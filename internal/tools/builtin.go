package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type AddNumbers struct{}

func (a *AddNumbers) Name() string        { return "add_numbers" }
func (a *AddNumbers) Description() string { return "Add two numbers." }

func (a *AddNumbers) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number", "description": "The first number."},
			"b": map[string]any{"type": "number", "description": "The second number."},
		},
		"required":             []string{"a", "b"},
		"additionalProperties": false,
	}
}

func (a *AddNumbers) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		A float64 `json:"a"`
		B float64 `json:"b"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing add_numbers input: %w", err)
	}
	return strconv.FormatFloat(args.A+args.B, 'f', -1, 64), nil
}

// CurrentTime reports the wall clock, optionally in a named IANA zone.
type CurrentTime struct {
	now func() time.Time
}

func (c *CurrentTime) Name() string        { return "current_time" }
func (c *CurrentTime) Description() string { return "Get the current date and time." }

func (c *CurrentTime) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"timezone": map[string]any{
				"type":        "string",
				"description": "IANA time zone, e.g. Europe/Berlin. Empty means UTC.",
			},
		},
		"required":             []string{"timezone"},
		"additionalProperties": false,
	}
}

func (c *CurrentTime) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Timezone string `json:"timezone"`
	}
	if input != "" {
		if err := json.Unmarshal([]byte(input), &args); err != nil {
			return "", fmt.Errorf("parsing current_time input: %w", err)
		}
	}

	loc := time.UTC
	if args.Timezone != "" {
		l, err := time.LoadLocation(args.Timezone)
		if err != nil {
			return "", fmt.Errorf("unknown timezone %q: %w", args.Timezone, err)
		}
		loc = l
	}

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	return now().In(loc).Format(time.RFC3339), nil
}
