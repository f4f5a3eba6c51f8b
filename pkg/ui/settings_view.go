package ui

import (
	"fmt"
	"strconv"

	"github.com/go-telegram/bot/models"
)

// BookOption is one wordbook row on the selection screen.
type BookOption struct {
	Name     string
	Selected bool
}

var (
	goalPresets = []int{10, 20, 30, 50, 100}
	hourPresets = []int{7, 9, 12, 18, 21}
)

func RenderHome(dailyGoal, reminderHour int, selectedBooks, totalBooks int) (string, *models.InlineKeyboardMarkup, error) {
	goalData, err := BuildGoalCallback()
	if err != nil {
		return "", nil, err
	}
	hourData, err := BuildHourCallback()
	if err != nil {
		return "", nil, err
	}
	booksData, err := BuildBooksCallback()
	if err != nil {
		return "", nil, err
	}
	closeData, err := BuildCloseCallback()
	if err != nil {
		return "", nil, err
	}

	text := fmt.Sprintf(
		"Settings\n- Daily goal: %d cards\n- Reminder: %02d:00\n- Wordbooks: %s",
		dailyGoal,
		reminderHour,
		formatBookSummary(selectedBooks, totalBooks),
	)

	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "Goal", CallbackData: goalData},
				{Text: "Reminder", CallbackData: hourData},
			},
			{
				{Text: "Wordbooks", CallbackData: booksData},
				{Text: "Close", CallbackData: closeData},
			},
		},
	}

	return text, keyboard, nil
}

func RenderGoal(current int) (string, *models.InlineKeyboardMarkup, error) {
	keyboard, err := buildAdjustKeyboard(ScreenGoal, goalPresets, strconv.Itoa)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Daily goal\nCurrent value: %d", current), keyboard, nil
}

func RenderHour(current int) (string, *models.InlineKeyboardMarkup, error) {
	keyboard, err := buildAdjustKeyboard(ScreenHour, hourPresets, func(h int) string {
		return fmt.Sprintf("%02d:00", h)
	})
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Reminder hour\nCurrent value: %02d:00", current), keyboard, nil
}

func RenderBooks(books []BookOption) (string, *models.InlineKeyboardMarkup, error) {
	backData, err := BuildHomeCallback()
	if err != nil {
		return "", nil, err
	}

	rows := make([][]models.InlineKeyboardButton, 0, len(books)+1)
	for i, book := range books {
		data, err := BuildBookToggleCallback(i)
		if err != nil {
			return "", nil, err
		}
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: toggleLabel(book.Name, book.Selected), CallbackData: data},
		})
	}
	rows = append(rows, []models.InlineKeyboardButton{{Text: "Back", CallbackData: backData}})

	text := "Wordbooks used by /review and reminders.\nNone selected means all."
	if len(books) == 0 {
		text = "No wordbooks yet. Upload a CSV to create one."
	}
	return text, &models.InlineKeyboardMarkup{InlineKeyboard: rows}, nil
}

func buildAdjustKeyboard(screen Screen, presets []int, label func(int) string) (*models.InlineKeyboardMarkup, error) {
	decData, err := BuildDecCallback(screen)
	if err != nil {
		return nil, err
	}
	incData, err := BuildIncCallback(screen)
	if err != nil {
		return nil, err
	}
	backData, err := BuildHomeCallback()
	if err != nil {
		return nil, err
	}

	presetRow := make([]models.InlineKeyboardButton, 0, len(presets))
	for _, value := range presets {
		data, err := BuildSetCallback(screen, value)
		if err != nil {
			return nil, err
		}
		presetRow = append(presetRow, models.InlineKeyboardButton{Text: label(value), CallbackData: data})
	}

	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "-1", CallbackData: decData},
				{Text: "+1", CallbackData: incData},
			},
			presetRow,
			{
				{Text: "Back", CallbackData: backData},
			},
		},
	}, nil
}

func formatBookSummary(selected, total int) string {
	if selected == 0 || selected >= total {
		return "all"
	}
	return fmt.Sprintf("%d of %d", selected, total)
}

func toggleLabel(label string, enabled bool) string {
	if enabled {
		return fmt.Sprintf("%s ✅", label)
	}
	return fmt.Sprintf("%s ❌", label)
}
