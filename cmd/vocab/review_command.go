package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/smith3v/vocab-srs/pkg/config"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/srs"
	"github.com/spf13/cobra"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	var flags queueFlags
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review cards interactively in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.repository()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				flags.limit = config.AppConfig.Study.SessionSize
			}
			req, err := flags.request(cmd, repo)
			if err != nil {
				return err
			}
			cards, err := newBuilder(ctx, repo).BuildCards(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cards) == 0 {
				fmt.Fprintln(out, "Nothing to review")
				return nil
			}

			session := terminalSession{
				in:       bufio.NewScanner(cmd.InOrStdin()),
				out:      out,
				recorder: srs.NewRecorder(repo),
			}
			return session.run(cmd, cards)
		},
	}
	flags.register(cmd, 0)
	return cmd
}

type terminalSession struct {
	in       *bufio.Scanner
	out      io.Writer
	recorder *srs.Recorder
}

func (s terminalSession) run(cmd *cobra.Command, cards []db.Card) error {
	answered, correct := 0, 0
	defer func() {
		fmt.Fprintf(s.out, "Reviewed %d cards, %d correct.\n", answered, correct)
	}()

	for i, card := range cards {
		header := fmt.Sprintf("[%d/%d] %s", i+1, len(cards), card.Headword)
		if card.Phonetic != "" {
			header += "  " + card.Phonetic
		}
		fmt.Fprintln(s.out, header)

		fmt.Fprint(s.out, "Press Enter to show the answer, q to quit: ")
		line, ok := s.readLine()
		if !ok || line == "q" {
			return nil
		}
		for _, m := range card.Meanings {
			fmt.Fprintf(s.out, "  %s\n", strings.Join(strings.Fields(m.PartOfSpeech+" "+m.MeaningZh+" "+m.MeaningEn), " "))
		}

		knew, quit := s.askKnew()
		if quit {
			return nil
		}
		outcome, err := s.recorder.RecordAnswer(cmd.Context(), card.ID, knew)
		if err != nil {
			return err
		}
		answered++
		if knew {
			correct++
		}
		fmt.Fprintf(s.out, "Next review in %d days.\n\n", outcome.SRS.IntervalDays)
	}
	return nil
}

func (s terminalSession) askKnew() (knew bool, quit bool) {
	for {
		fmt.Fprint(s.out, "Did you know it? [y/n/q]: ")
		line, ok := s.readLine()
		if !ok {
			return false, true
		}
		switch line {
		case "y", "yes":
			return true, false
		case "n", "no":
			return false, false
		case "q":
			return false, true
		}
	}
}

func (s terminalSession) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(s.in.Text())), true
}
