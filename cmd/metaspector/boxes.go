package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/abema/go-mp4"
	"github.com/spf13/cobra"
	"github.com/sunfish-shogi/bufseekio"

	"github.com/simonhull/metaspector"
	"github.com/simonhull/metaspector/internal/source"
)

// Boxes whose payload is never read: media data and padding.
var skipPayload = map[string]bool{"mdat": true, "free": true, "skip": true, "wide": true}

func newBoxesCmd(a *app) *cobra.Command {
	var payload bool

	cmd := &cobra.Command{
		Use:   "boxes <file|url>",
		Short: "Print the box tree of an MP4 file.",
		Long: "Print the box tree of an MP4 file, one box per line with its size and offset.\n" +
			"Useful to confirm what a file actually contains.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkSources(args); err != nil {
				return err
			}
			r, closeFn, err := a.openSeeker(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer closeFn()
			return dumpBoxes(cmd.OutOrStdout(), r, payload)
		},
	}
	cmd.Flags().BoolVar(&payload, "payload", false, "also print the decoded fields of known boxes")
	return cmd
}

// openSeeker opens a local file or URL as a buffered io.ReadSeeker.
func (a *app) openSeeker(ctx context.Context, src string) (io.ReadSeeker, func() error, error) {
	if metaspector.IsRemote(src) {
		h, err := source.OpenHTTP(ctx, src, source.Config{
			Client:     &http.Client{Timeout: a.cfg.Remote.Timeout.Duration},
			ChunkSize:  a.cfg.Remote.ChunkSize,
			MaxFetches: a.cfg.Remote.MaxFetches,
			Logger:     a.logger,
		})
		if err != nil {
			return nil, nil, err
		}
		r := io.NewSectionReader(h, 0, h.Size())
		return bufseekio.NewReadSeeker(r, 64*1024, 4), func() error { return nil }, nil
	}

	f, err := source.OpenFile(src)
	if err != nil {
		return nil, nil, err
	}
	return bufseekio.NewReadSeeker(f, 64*1024, 4), f.Close, nil
}

// dumpBoxes walks every box and prints it indented by depth.
func dumpBoxes(w io.Writer, r io.ReadSeeker, payload bool) error {
	_, err := mp4.ReadBoxStructure(r, func(h *mp4.ReadHandle) (interface{}, error) {
		indent := strings.Repeat("  ", len(h.Path)-1)
		typ := h.BoxInfo.Type.String()
		fmt.Fprintf(w, "%s%s (size: %d, offset: %d)\n", indent, typ, h.BoxInfo.Size, h.BoxInfo.Offset)

		if !h.BoxInfo.IsSupportedType() || skipPayload[typ] {
			return nil, nil
		}
		if payload {
			box, _, err := h.ReadPayload()
			if err != nil {
				return nil, fmt.Errorf("read %s payload: %w", typ, err)
			}
			str, err := mp4.Stringify(box, h.BoxInfo.Context)
			if err != nil {
				return nil, err
			}
			if str != "" {
				fmt.Fprintf(w, "%s  %s\n", indent, str)
			}
		}
		return h.Expand()
	})
	return err
}
