package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"framegrab/internal/config"
	"framegrab/internal/resume"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-video outcomes from the resume log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := cfg.Paths.OutputDir
			if outputDir != "" {
				expanded, err := config.ExpandPath(outputDir)
				if err != nil {
					return err
				}
				dir = expanded
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			log := resume.New(resume.PathFor(dir, resume.DefaultKind), logger)
			records, err := log.Records()
			if err != nil {
				return fmt.Errorf("read resume log: %w", err)
			}
			if len(records) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No recorded outcomes in %s\n", log.Path())
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				timestamp := "-"
				if !rec.Timestamp.IsZero() {
					timestamp = rec.Timestamp.Local().Format(time.RFC3339)
				}
				status := string(rec.Status)
				if rec.Legacy {
					status = "Handled (legacy)"
				}
				rows = append(rows, []string{timestamp, status, rec.Reason, rec.Path})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Recorded", "Status", "Reason", "Video"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory whose resume log to read")
	return cmd
}
