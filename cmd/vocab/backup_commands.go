package main

import (
	"fmt"
	"os"
	"time"

	"github.com/smith3v/vocab-srs/pkg/backup"
	"github.com/spf13/cobra"
)

func newBackupCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore the whole store as JSON",
	}
	cmd.AddCommand(newBackupExportCommand(ctx))
	cmd.AddCommand(newBackupImportCommand(ctx))
	return cmd
}

func newBackupExportCommand(ctx *commandContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.repository()
			if err != nil {
				return err
			}
			svc := backup.NewService(repo)
			if output == "-" {
				_, err := svc.Export(cmd.Context(), cmd.OutOrStdout())
				return err
			}
			if output == "" {
				output = backup.Filename(time.Now().In(ctx.location()))
			}

			file, err := os.Create(output)
			if err != nil {
				return err
			}
			doc, err := svc.Export(cmd.Context(), file)
			if closeErr := file.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %d wordbooks, %d cards\n", output, len(doc.Wordbooks), len(doc.Cards))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout; defaults to a dated file name")
	return cmd
}

func newBackupImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the store with the contents of a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			repo, err := ctx.repository()
			if err != nil {
				return err
			}
			doc, err := backup.NewService(repo).Import(cmd.Context(), file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d wordbooks, %d cards, %d progress records\n",
				len(doc.Wordbooks), len(doc.Cards), len(doc.CardStats)+len(doc.CardSRS))
			return nil
		},
	}
}
