package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/simonhull/metaspector"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file|url> [file|url...]",
		Short: "Inspect media files or URLs and print their metadata as JSON.",
		Example: "  metaspector inspect /path/to/my_video.mp4\n" +
			"  metaspector inspect https://example.com/audio.flac --section audio",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkSources(args); err != nil {
				return err
			}
			results, err := metaspector.InspectManyLimit(cmd.Context(), args, a.cfg.Workers, a.options()...)
			if err != nil {
				return err
			}
			for i, res := range results {
				for _, w := range res.Warnings {
					a.logger.Warn(w.Message,
						slog.String("source", args[i]),
						slog.String("stage", w.Stage),
						slog.Int64("offset", w.Offset),
					)
				}
			}
			if len(results) == 1 {
				return writeJSON(cmd.OutOrStdout(), results[0])
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}
}

// checkSources rejects local paths that are missing or not regular files
// before any work starts. URLs are checked when fetched.
func checkSources(sources []string) error {
	for _, src := range sources {
		if metaspector.IsRemote(src) {
			continue
		}
		info, err := os.Stat(src)
		if err != nil || !info.Mode().IsRegular() {
			return fmt.Errorf("the path '%s' does not exist or is not a file", src)
		}
	}
	return nil
}

// writeJSON writes v indented, leaving non-ASCII text and HTML characters as is.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
