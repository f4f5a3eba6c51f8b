package training

import (
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/srs"
)

const AnswerCallbackPrefix = "t:ans:"

const (
	answerKnew   = "y"
	answerForgot = "n"
)

// BuildPrompt renders a card as MarkdownV2 with the meanings behind a spoiler.
func BuildPrompt(p Prompt) string {
	var sb strings.Builder
	sb.WriteString("*")
	sb.WriteString(bot.EscapeMarkdown(p.Card.Headword))
	sb.WriteString("*")
	if p.Card.Phonetic != "" {
		sb.WriteString(" ")
		sb.WriteString(bot.EscapeMarkdown(p.Card.Phonetic))
	}
	sb.WriteString(bot.EscapeMarkdown(fmt.Sprintf(" (%d/%d)", p.Index+1, p.Total)))

	for _, line := range meaningLines(p.Card) {
		sb.WriteString("\n||")
		sb.WriteString(bot.EscapeMarkdown(line))
		sb.WriteString("||")
	}
	return sb.String()
}

func meaningLines(card db.Card) []string {
	lines := make([]string, 0, len(card.Meanings))
	for _, m := range card.Meanings {
		parts := make([]string, 0, 3)
		if m.PartOfSpeech != "" {
			parts = append(parts, m.PartOfSpeech)
		}
		if m.MeaningZh != "" {
			parts = append(parts, m.MeaningZh)
		}
		if m.MeaningEn != "" {
			parts = append(parts, m.MeaningEn)
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " "))
		}
	}
	if len(lines) == 0 && card.Notes != "" {
		lines = append(lines, card.Notes)
	}
	return lines
}

func BuildKeyboard(token string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "Knew it", CallbackData: AnswerCallbackPrefix + token + ":" + answerKnew},
				{Text: "Forgot", CallbackData: AnswerCallbackPrefix + token + ":" + answerForgot},
			},
		},
	}
}

// ParseAnswerCallback decodes t:ans:<token>:<y|n>.
func ParseAnswerCallback(data string) (token string, correct bool, ok bool) {
	rest, found := strings.CutPrefix(data, AnswerCallbackPrefix)
	if !found {
		return "", false, false
	}
	token, answer, found := strings.Cut(rest, ":")
	if !found || token == "" {
		return "", false, false
	}
	switch answer {
	case answerKnew:
		return token, true, true
	case answerForgot:
		return token, false, true
	default:
		return "", false, false
	}
}

// FormatResolved appends the answer and the next interval to a prompt.
func FormatResolved(prompt string, correct bool, outcome srs.Outcome) string {
	label := "❌ Forgot"
	if correct {
		label = "✅ Knew it"
	}
	next := fmt.Sprintf("%s, next review in %s", label, formatInterval(outcome.SRS.IntervalDays))
	if prompt == "" {
		return bot.EscapeMarkdown(next)
	}
	return prompt + "\n" + bot.EscapeMarkdown(next)
}

func formatInterval(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
