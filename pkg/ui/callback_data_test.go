package ui

import (
	"strings"
	"testing"
)

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Action
		wantErr bool
	}{
		{
			name:  "home",
			input: "s:home",
			want:  Action{Screen: ScreenHome, Op: OpNone, Value: 0},
		},
		{
			name:  "goal",
			input: "s:goal",
			want:  Action{Screen: ScreenGoal, Op: OpNone, Value: 0},
		},
		{
			name:  "books",
			input: "s:books",
			want:  Action{Screen: ScreenBooks, Op: OpNone, Value: 0},
		},
		{
			name:  "close",
			input: "s:close",
			want:  Action{Screen: ScreenClose, Op: OpNone, Value: 0},
		},
		{
			name:  "goal inc",
			input: "s:goal:+1",
			want:  Action{Screen: ScreenGoal, Op: OpInc, Value: 1},
		},
		{
			name:  "hour dec",
			input: "s:hour:-1",
			want:  Action{Screen: ScreenHour, Op: OpDec, Value: -1},
		},
		{
			name:  "goal set",
			input: "s:goal:set:50",
			want:  Action{Screen: ScreenGoal, Op: OpSet, Value: 50},
		},
		{
			name:  "hour set",
			input: "s:hour:set:0",
			want:  Action{Screen: ScreenHour, Op: OpSet, Value: 0},
		},
		{
			name:  "book toggle",
			input: "s:books:toggle:3",
			want:  Action{Screen: ScreenBooks, Op: OpToggle, Value: 3},
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "missing prefix",
			input:   "home",
			wantErr: true,
		},
		{
			name:    "empty action",
			input:   "s:",
			wantErr: true,
		},
		{
			name:    "unknown action",
			input:   "s:noop",
			wantErr: true,
		},
		{
			name:    "books adjust",
			input:   "s:books:+1",
			wantErr: true,
		},
		{
			name:    "toggle on goal",
			input:   "s:goal:toggle:1",
			wantErr: true,
		},
		{
			name:    "goal set negative",
			input:   "s:goal:set:-1",
			wantErr: true,
		},
		{
			name:    "goal set non-numeric",
			input:   "s:goal:set:abc",
			wantErr: true,
		},
		{
			name:    "goal invalid op",
			input:   "s:goal:+2",
			wantErr: true,
		},
		{
			name:    "extra parts",
			input:   "s:hour:set:1:extra",
			wantErr: true,
		},
		{
			name:    "too long",
			input:   "s:" + strings.Repeat("a", MaxCallbackDataLen),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCallbackData(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("unexpected action: got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuilderCallbacksRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		build func() (string, error)
		want  Action
	}{
		{"home", BuildHomeCallback, Action{Screen: ScreenHome}},
		{"goal", BuildGoalCallback, Action{Screen: ScreenGoal}},
		{"hour", BuildHourCallback, Action{Screen: ScreenHour}},
		{"books", BuildBooksCallback, Action{Screen: ScreenBooks}},
		{"close", BuildCloseCallback, Action{Screen: ScreenClose}},
		{"goal inc", func() (string, error) { return BuildIncCallback(ScreenGoal) }, Action{Screen: ScreenGoal, Op: OpInc, Value: 1}},
		{"hour dec", func() (string, error) { return BuildDecCallback(ScreenHour) }, Action{Screen: ScreenHour, Op: OpDec, Value: -1}},
		{"goal set", func() (string, error) { return BuildSetCallback(ScreenGoal, 30) }, Action{Screen: ScreenGoal, Op: OpSet, Value: 30}},
		{"book toggle", func() (string, error) { return BuildBookToggleCallback(12) }, Action{Screen: ScreenBooks, Op: OpToggle, Value: 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.build()
			if err != nil {
				t.Fatalf("build failed: %v", err)
			}
			got, err := ParseCallbackData(data)
			if err != nil {
				t.Fatalf("parse %q failed: %v", data, err)
			}
			if got != tt.want {
				t.Fatalf("unexpected action: got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuilderRejectsInvalidInput(t *testing.T) {
	if _, err := BuildIncCallback(ScreenBooks); err == nil {
		t.Fatalf("expected books to be non-adjustable")
	}
	if _, err := BuildSetCallback(ScreenGoal, -1); err == nil {
		t.Fatalf("expected negative value to be rejected")
	}
	if _, err := BuildBookToggleCallback(-1); err == nil {
		t.Fatalf("expected negative index to be rejected")
	}
}
