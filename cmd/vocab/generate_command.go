package main

import (
	"fmt"
	"strings"

	"github.com/smith3v/vocab-srs/pkg/config"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/generate"
	"github.com/spf13/cobra"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var headword string
	cmd := &cobra.Command{
		Use:   "generate <wordbook>",
		Short: "Regenerate phonetics and meanings with the AI provider",
		Long: "Regenerates every card of the wordbook, or only --card. Cards are\n" +
			"processed concurrently; a failed card is reported and skipped.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := generate.NewClient(config.AppConfig.AI)
			if err != nil {
				return err
			}
			repo, err := ctx.repository()
			if err != nil {
				return err
			}
			wb, err := findWordbook(cmd, repo, strings.Join(args, " "))
			if err != nil {
				return err
			}
			gen := generate.NewGenerator(client, config.AppConfig.AI)

			var result generate.BatchResult
			if headword != "" {
				card, found, err := repo.FindCardByHeadword(cmd.Context(), wb.ID, headword)
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("%w: %q in %q", db.ErrCardNotFound, headword, wb.Name)
				}
				result = gen.RegenerateCards(cmd.Context(), []db.Card{card}, generate.UpdateCardApply(repo))
			} else {
				result, err = gen.RegenerateWordbook(cmd.Context(), repo, wb.ID)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Regenerated %d of %d cards\n", result.Succeeded, result.Total)
			for _, f := range result.Failures {
				fmt.Fprintf(out, "  %s: %v\n", f.Headword, f.Err)
			}
			if result.Failed > 0 {
				return fmt.Errorf("%d cards failed", result.Failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&headword, "card", "", "Regenerate a single card by headword")
	return cmd
}
