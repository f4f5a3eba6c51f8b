package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/spf13/cobra"
)

func newWordbookCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wordbook",
		Short: "Manage wordbooks",
	}
	cmd.AddCommand(newWordbookAddCommand(ctx))
	cmd.AddCommand(newWordbookListCommand(ctx))
	cmd.AddCommand(newWordbookDeleteCommand(ctx))
	return cmd
}

func newWordbookAddCommand(ctx *commandContext) *cobra.Command {
	var description, level string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a wordbook",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.repository()
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")
			if _, found, err := repo.FindWordbookByName(cmd.Context(), name); err != nil {
				return err
			} else if found {
				return fmt.Errorf("wordbook %q already exists", name)
			}
			wb := db.Wordbook{Name: name, Description: description, Level: level}
			if err := repo.CreateWordbook(cmd.Context(), &wb); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created wordbook %q (%s)\n", wb.Name, wb.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Wordbook description")
	cmd.Flags().StringVar(&level, "level", "", "Difficulty level, e.g. Beginner or TOEIC")
	return cmd
}

func newWordbookListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List wordbooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.repository()
			if err != nil {
				return err
			}
			books, err := repo.ListWordbooks(cmd.Context())
			if err != nil {
				return err
			}
			if len(books) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No wordbooks")
				return nil
			}
			rows := make([][]string, 0, len(books))
			for _, wb := range books {
				cards, err := repo.ListCardsByWordbook(cmd.Context(), wb.ID)
				if err != nil {
					return err
				}
				rows = append(rows, []string{wb.Name, wb.Level, strconv.Itoa(len(cards)), wb.ID})
			}
			writeTable(cmd.OutOrStdout(), []string{"Name", "Level", "Cards", "ID"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft})
			return nil
		},
	}
}

func newWordbookDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a wordbook with its cards and progress",
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
			if err := repo.DeleteWordbook(cmd.Context(), wb.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted wordbook %q\n", wb.Name)
			return nil
		},
	}
}

func findWordbook(cmd *cobra.Command, repo *db.Repository, name string) (db.Wordbook, error) {
	wb, found, err := repo.FindWordbookByName(cmd.Context(), name)
	if err != nil {
		return db.Wordbook{}, err
	}
	if !found {
		return db.Wordbook{}, fmt.Errorf("%w: %q", db.ErrWordbookNotFound, name)
	}
	return wb, nil
}
