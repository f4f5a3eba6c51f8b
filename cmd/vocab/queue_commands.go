package main

import (
	"fmt"
	"strings"

	"github.com/smith3v/vocab-srs/pkg/config"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/queue"
	"github.com/spf13/cobra"
)

// queueFlags are shared by the queue and review commands.
type queueFlags struct {
	mode     string
	wordbook string
	order    string
	filter   string
	limit    int
	all      bool
}

func (f *queueFlags) register(cmd *cobra.Command, defaultLimit int) {
	modes := make([]string, 0, len(queue.Modes))
	for _, m := range queue.Modes {
		modes = append(modes, string(m))
	}
	cmd.Flags().StringVarP(&f.mode, "mode", "m", string(queue.ModeDue), "Queue mode: "+strings.Join(modes, ", "))
	cmd.Flags().StringVarP(&f.wordbook, "wordbook", "w", "", "Wordbook name; required by the wordbook-* modes, narrows the others")
	cmd.Flags().StringVar(&f.order, "order", string(queue.OrderCreated), "Order for wordbook-ordered: created or alphabetical")
	cmd.Flags().StringVar(&f.filter, "filter", "", "Filter for frequent-errors: top-n=N, min-errors=N or min-error-rate=N")
	cmd.Flags().IntVarP(&f.limit, "limit", "n", defaultLimit, "Maximum cards; 0 means no limit")
	cmd.Flags().BoolVar(&f.all, "all-wordbooks", false, "Ignore the wordbook selection from settings")
}

func (f *queueFlags) request(cmd *cobra.Command, repo *db.Repository) (queue.Request, error) {
	mode, err := queue.ParseMode(f.mode)
	if err != nil {
		return queue.Request{}, err
	}
	req := queue.Request{
		Mode:  mode,
		Order: queue.Order(f.order),
		Limit: f.limit,
	}
	if f.filter != "" {
		if req.Filter, err = queue.ParseFilter(f.filter); err != nil {
			return queue.Request{}, err
		}
	}
	if f.wordbook != "" {
		wb, err := findWordbook(cmd, repo, f.wordbook)
		if err != nil {
			return queue.Request{}, err
		}
		req.WordbookID = wb.ID
		// An explicit wordbook replaces the settings selection.
		req.SelectedWordbookIDs = []string{wb.ID}
		return req, nil
	}
	if !f.all {
		settings, err := repo.Settings(cmd.Context())
		if err != nil {
			return queue.Request{}, err
		}
		req.SelectedWordbookIDs = settings.SelectedWordbookIDs
	}
	return req, nil
}

func newBuilder(ctx *commandContext, repo *db.Repository) *queue.Builder {
	return queue.NewBuilder(repo, config.AppConfig.Study.FrequentErrorsTopN, ctx.location())
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	var flags queueFlags
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show the cards a review session would contain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.repository()
			if err != nil {
				return err
			}
			req, err := flags.request(cmd, repo)
			if err != nil {
				return err
			}
			cards, err := newBuilder(ctx, repo).BuildCards(cmd.Context(), req)
			if err != nil {
				return err
			}
			if len(cards) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to review")
				return nil
			}
			return writeCardTable(cmd, repo, cards)
		},
	}
	flags.register(cmd, 0)
	return cmd
}
