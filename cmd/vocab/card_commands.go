package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/smith3v/vocab-srs/pkg/config"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/generate"
	"github.com/spf13/cobra"
	"gorm.io/datatypes"
)

func newCardCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Manage cards",
	}
	cmd.AddCommand(newCardAddCommand(ctx))
	cmd.AddCommand(newCardListCommand(ctx))
	return cmd
}

func newCardAddCommand(ctx *commandContext) *cobra.Command {
	var (
		meaning  db.Meaning
		phonetic string
		notes    string
		tags     []string
		useAI    bool
	)
	cmd := &cobra.Command{
		Use:   "add <wordbook> <headword>",
		Short: "Add a card to a wordbook",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.repository()
			if err != nil {
				return err
			}
			wb, err := findWordbook(cmd, repo, args[0])
			if err != nil {
				return err
			}
			headword := strings.TrimSpace(args[1])
			if _, found, err := repo.FindCardByHeadword(cmd.Context(), wb.ID, headword); err != nil {
				return err
			} else if found {
				return fmt.Errorf("card %q already exists in %q", headword, wb.Name)
			}

			if useAI {
				client, err := generate.NewClient(config.AppConfig.AI)
				if err != nil {
					return err
				}
				card, err := generate.NewGenerator(client, config.AppConfig.AI).CreateCard(cmd.Context(), repo, wb.ID, headword)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %q with %d generated meanings\n", card.Headword, len(card.Meanings))
				return nil
			}

			card := db.Card{
				WordbookID: wb.ID,
				Headword:   headword,
				Phonetic:   phonetic,
				Notes:      notes,
				Tags:       datatypes.NewJSONSlice(lo.Filter(tags, func(tag string, _ int) bool { return strings.TrimSpace(tag) != "" })),
				Meanings:   datatypes.NewJSONSlice([]db.Meaning{}),
			}
			if meaning.MeaningZh != "" || meaning.MeaningEn != "" {
				card.Meanings = datatypes.NewJSONSlice([]db.Meaning{meaning})
			}
			if err := repo.CreateCard(cmd.Context(), &card); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q to %q\n", card.Headword, wb.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&meaning.MeaningZh, "zh", "", "Chinese meaning")
	cmd.Flags().StringVar(&meaning.MeaningEn, "en", "", "English meaning")
	cmd.Flags().StringVar(&meaning.PartOfSpeech, "pos", "", "Part of speech")
	cmd.Flags().StringVar(&phonetic, "phonetic", "", "Phonetic transcription")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag, repeatable")
	cmd.Flags().BoolVar(&useAI, "generate", false, "Fill phonetic and meanings with the AI generator")
	return cmd
}

func newCardListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <wordbook>",
		Short: "List the cards of a wordbook with their progress",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.repository()
			if err != nil {
				return err
			}
			wb, err := findWordbook(cmd, repo, strings.Join(args, " "))
			if err != nil {
				return err
			}
			cards, err := repo.ListCardsByWordbook(cmd.Context(), wb.ID)
			if err != nil {
				return err
			}
			if len(cards) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Wordbook %q has no cards\n", wb.Name)
				return nil
			}
			return writeCardTable(cmd, repo, cards)
		},
	}
}

// writeCardTable prints cards with their review counters and due time.
func writeCardTable(cmd *cobra.Command, repo *db.Repository, cards []db.Card) error {
	stats, err := repo.ListCardStats(cmd.Context())
	if err != nil {
		return err
	}
	srsRecords, err := repo.ListCardSRS(cmd.Context())
	if err != nil {
		return err
	}
	statsByCard := lo.KeyBy(stats, func(s db.CardStats) string { return s.CardID })
	srsByCard := lo.KeyBy(srsRecords, func(s db.CardSRS) string { return s.CardID })

	now := time.Now()
	rows := make([][]string, 0, len(cards))
	for _, card := range cards {
		s := statsByCard[card.ID]
		rows = append(rows, []string{
			card.Headword,
			summarizeMeanings(card),
			strconv.Itoa(s.RightCount),
			strconv.Itoa(s.WrongCount),
			formatDue(srsByCard[card.ID].DueAt, now),
		})
	}
	writeTable(cmd.OutOrStdout(), []string{"Headword", "Meaning", "Right", "Wrong", "Due"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft})
	return nil
}

func summarizeMeanings(card db.Card) string {
	parts := lo.FilterMap([]db.Meaning(card.Meanings), func(m db.Meaning, _ int) (string, bool) {
		text := m.MeaningZh
		if text == "" {
			text = m.MeaningEn
		}
		if text == "" {
			return "", false
		}
		if m.PartOfSpeech != "" {
			text = m.PartOfSpeech + " " + text
		}
		return text, true
	})
	return strings.Join(parts, "; ")
}
