package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"framegrab/internal/batch"
	"framegrab/internal/config"
	"framegrab/internal/cropper"
	"framegrab/internal/runctx"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		outputDir       string
		fps             float64
		mode            string
		limitSeconds    int
		maxVideos       int
		crop            bool
		restart         bool
		desktopDuration int
		reprocess       bool
		keepExisting    bool
		debug           bool
		extraArgs       []string
	)

	cmd := &cobra.Command{
		Use:   "run [source-dir]",
		Short: "Extract frames from every video in a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				expanded, err := config.ExpandPath(args[0])
				if err != nil {
					return err
				}
				cfg.Paths.SourceDir = expanded
			}
			if outputDir != "" {
				expanded, err := config.ExpandPath(outputDir)
				if err != nil {
					return err
				}
				cfg.Paths.OutputDir = expanded
			}
			if cfg.Paths.SourceDir == "" {
				return fmt.Errorf("no source directory: pass one or set paths.source_dir")
			}
			if desktopDuration > 0 {
				cfg.Capture.DesktopDuration = desktopDuration
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			orch, err := batch.New(cfg, batch.Options{
				Mode:      mode,
				TargetFPS: fps,
				Limit:     time.Duration(limitSeconds) * time.Second,
				MaxVideos: maxVideos,
				Restart:   restart,
				Crop:      crop,
				CropOptions: cropper.Options{
					Reprocess:    reprocess,
					KeepExisting: keepExisting,
					Debug:        debug,
				},
				ExtraArgs: extraArgs,
			}, logger)
			if err != nil {
				return err
			}

			start := time.Now()
			run, runErr := orch.Run(cmd.Context())
			if run != nil && run.Stats.Discovered > 0 || runErr == nil {
				fmt.Fprintln(cmd.OutOrStdout(), summaryTable(run.RunID, run.Stats, time.Since(start)))
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory for extracted frames")
	cmd.Flags().Float64Var(&fps, "fps", 2, "Target frames per second to extract")
	cmd.Flags().StringVar(&mode, "mode", batch.ModeSnapshot, "Capture strategy: snapshot or desktop")
	cmd.Flags().IntVar(&limitSeconds, "limit", 0, "Per-video capture time limit in seconds (0 = strategy ceiling)")
	cmd.Flags().IntVar(&maxVideos, "max-videos", 0, "Stop after this many captures (0 = no ceiling)")
	cmd.Flags().BoolVar(&crop, "crop", true, "Run the cropping tool after capture")
	cmd.Flags().BoolVar(&restart, "restart", false, "Process every video regardless of the resume log")
	cmd.Flags().IntVar(&desktopDuration, "desktop-duration", 0, "Desktop capture duration in seconds per video")
	cmd.Flags().BoolVar(&reprocess, "reprocess", false, "Cropper: reprocess images it already handled")
	cmd.Flags().BoolVar(&keepExisting, "keep-existing", false, "Cropper: keep existing cropped output")
	cmd.Flags().BoolVar(&debug, "debug", false, "Cropper: enable its debug output")
	cmd.Flags().StringArrayVar(&extraArgs, "player-arg", nil, "Extra player argument (repeatable)")

	return cmd
}

func summaryTable(runID string, stats runctx.Stats, elapsed time.Duration) string {
	rows := [][]string{
		{"Run", runID},
		{"Discovered", strconv.Itoa(stats.Discovered)},
		{"Processed", strconv.Itoa(stats.Processed)},
		{"Timed out", strconv.Itoa(stats.TimedOut)},
		{"Skipped", strconv.Itoa(stats.Skipped)},
		{"Failed", strconv.Itoa(stats.Failed)},
		{"Frames saved", strconv.Itoa(stats.FramesSaved)},
		{"Elapsed", elapsed.Round(time.Second).String()},
	}
	return renderTable([]string{"Batch", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}
