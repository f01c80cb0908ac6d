package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonhull/metaspector"
	"github.com/simonhull/metaspector/internal/imaging"
)

func newExportCmd(a *app) *cobra.Command {
	export := &cobra.Command{
		Use:   "export",
		Short: "Export data (cover art or metadata) from a media file or URL.",
		Example: "  # Export cover art from a URL to a specific file\n" +
			"  metaspector export cover https://example.com/song.flac /covers/art.jpg\n\n" +
			"  # Export metadata from a local file to a directory\n" +
			"  metaspector export meta song.mp3 /json_files/",
	}

	export.AddCommand(&cobra.Command{
		Use:   "cover <file|url> <destination>",
		Short: "Write the embedded cover art to a file or directory.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, dest := args[0], args[1]
			if err := checkSources(args[:1]); err != nil {
				return err
			}

			var data []byte
			var err error
			if metaspector.IsRemote(src) {
				data, err = metaspector.CoverArtURL(cmd.Context(), src, a.options()...)
			} else {
				data, err = metaspector.CoverArtFile(cmd.Context(), src, a.options()...)
			}
			if err != nil {
				return err
			}
			if data == nil {
				return errors.New("no cover art found in the file")
			}

			out, err := writeExport(dest, baseName(src)+imaging.Extension(data), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cover art exported successfully to '%s'.\n", out)
			return nil
		},
	})

	export.AddCommand(&cobra.Command{
		Use:   "meta <file|url> <destination>",
		Short: "Write the metadata JSON to a file or directory.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, dest := args[0], args[1]
			if err := checkSources(args[:1]); err != nil {
				return err
			}

			var res *metaspector.Result
			var err error
			if metaspector.IsRemote(src) {
				res, err = metaspector.InspectURL(cmd.Context(), src, a.options()...)
			} else {
				res, err = metaspector.InspectFile(cmd.Context(), src, a.options()...)
			}
			if err != nil {
				return err
			}
			// The export always carries every section.
			res.Only = ""

			var buf strings.Builder
			if err := writeJSON(&buf, res); err != nil {
				return err
			}
			out, err := writeExport(dest, baseName(src)+".json", []byte(buf.String()))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Metadata exported successfully to '%s'.\n", out)
			return nil
		},
	})

	return export
}

// writeExport writes data to dest, or to dest/name when dest is a directory
// or ends in a separator, creating parent directories as needed. It returns the path written.
func writeExport(dest, name string, data []byte) (string, error) {
	out := dest
	if info, err := os.Stat(dest); (err == nil && info.IsDir()) || strings.HasSuffix(dest, string(filepath.Separator)) {
		out = filepath.Join(dest, name)
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	return out, nil
}

// baseName returns the source file name without its extension, taking
// URLs by their unescaped path.
func baseName(src string) string {
	name := filepath.Base(src)
	if metaspector.IsRemote(src) {
		name = ""
		if u, err := url.Parse(src); err == nil {
			name = path.Base(u.Path)
		}
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	if name == "" || name == "." || name == "/" {
		return "media_export"
	}
	return name
}
