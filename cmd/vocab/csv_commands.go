package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/smith3v/vocab-srs/pkg/importexport"
	"github.com/spf13/cobra"
)

func newCSVCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Import and export wordbooks as CSV",
	}
	cmd.AddCommand(newCSVImportCommand(ctx))
	cmd.AddCommand(newCSVExportCommand(ctx))
	return cmd
}

func newCSVImportCommand(ctx *commandContext) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a CSV file into a wordbook, creating it when missing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(name) == "" {
				base := filepath.Base(args[0])
				name = strings.TrimSuffix(base, filepath.Ext(base))
			}
			repo, err := ctx.repository()
			if err != nil {
				return err
			}
			result, err := importexport.ImportCSV(cmd.Context(), repo, strings.TrimSpace(name), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wordbook %q: %d inserted, %d updated, %d skipped\n",
				strings.TrimSpace(name), result.Inserted, result.Updated, result.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "wordbook", "w", "", "Target wordbook; defaults to the file name")
	return cmd
}

func newCSVExportCommand(ctx *commandContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <wordbook>",
		Short: "Export a wordbook as CSV",
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
			wb, data, err := importexport.ExportWordbook(cmd.Context(), repo, wb.ID)
			if err != nil {
				return err
			}
			if output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if output == "" {
				output = importexport.ExportFilename(wb.Name, time.Now().In(ctx.location()))
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout; defaults to a dated file name")
	return cmd
}
