package ui

import (
	"strconv"
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"
)

func TestRenderHomeButtons(t *testing.T) {
	text, keyboard, err := RenderHome(20, 9, 2, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Settings", "Daily goal: 20", "Reminder: 09:00", "Wordbooks: 2 of 5"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in %q", want, text)
		}
	}

	goalData, _ := BuildGoalCallback()
	hourData, _ := BuildHourCallback()
	booksData, _ := BuildBooksCallback()
	closeData, _ := BuildCloseCallback()

	assertButton(t, keyboard, "Goal", goalData)
	assertButton(t, keyboard, "Reminder", hourData)
	assertButton(t, keyboard, "Wordbooks", booksData)
	assertButton(t, keyboard, "Close", closeData)
}

func TestRenderHomeAllBooks(t *testing.T) {
	text, _, err := RenderHome(20, 9, 0, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "Wordbooks: all") {
		t.Fatalf("expected empty selection to read as all, got %q", text)
	}
}

func TestRenderGoalButtons(t *testing.T) {
	text, keyboard, err := RenderGoal(25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "Current value: 25") {
		t.Fatalf("unexpected text %q", text)
	}

	decData, _ := BuildDecCallback(ScreenGoal)
	incData, _ := BuildIncCallback(ScreenGoal)
	backData, _ := BuildHomeCallback()
	assertButton(t, keyboard, "-1", decData)
	assertButton(t, keyboard, "+1", incData)
	assertButton(t, keyboard, "Back", backData)

	for _, value := range goalPresets {
		setData, _ := BuildSetCallback(ScreenGoal, value)
		assertButton(t, keyboard, strconv.Itoa(value), setData)
	}
}

func TestRenderHourButtons(t *testing.T) {
	text, keyboard, err := RenderHour(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "07:00") {
		t.Fatalf("unexpected text %q", text)
	}
	setData, _ := BuildSetCallback(ScreenHour, 21)
	assertButton(t, keyboard, "21:00", setData)
}

func TestRenderBooks(t *testing.T) {
	_, keyboard, err := RenderBooks([]BookOption{{Name: "TOEFL", Selected: true}, {Name: "GRE"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, _ := BuildBookToggleCallback(0)
	second, _ := BuildBookToggleCallback(1)
	assertButton(t, keyboard, "TOEFL ✅", first)
	assertButton(t, keyboard, "GRE ❌", second)

	text, _, err := RenderBooks(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "No wordbooks") {
		t.Fatalf("unexpected empty text %q", text)
	}
}

func assertButton(t *testing.T, keyboard *models.InlineKeyboardMarkup, text, callbackData string) {
	t.Helper()

	if keyboard == nil {
		t.Fatalf("expected keyboard, got nil")
	}

	for _, row := range keyboard.InlineKeyboard {
		for _, button := range row {
			if button.Text == text {
				if button.CallbackData != callbackData {
					t.Fatalf("button %q callback mismatch: got %q want %q", text, button.CallbackData, callbackData)
				}
				return
			}
		}
	}
	t.Fatalf("button %q not found", text)
}
