// Command metaspector prints the metadata of MP4, FLAC and MP3 files or URLs
// as JSON and exports their cover art.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/phsym/console-slog"
	"github.com/spf13/cobra"

	"github.com/simonhull/metaspector"
	"github.com/simonhull/metaspector/internal/config"
)

// app holds what every subcommand shares once flags and config are resolved.
type app struct {
	configPath string
	logLevel   string
	section    string
	workers    int

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "metaspector",
		Short:         "Inspect and extract metadata from media files or URLs.",
		Long:          "Inspect and extract metadata from MP4, FLAC and MP3 files or URLs.\n\nUse 'metaspector <command> --help' for more information on a specific command.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&a.section, "section", "", "output only one section: metadata, video, audio or subtitle")
	flags.IntVar(&a.workers, "workers", 0, "concurrent inspections when several sources are given (default: CPU count)")

	root.AddCommand(
		newInspectCmd(a),
		newExportCmd(a),
		newBoxesCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads the config file and lets explicitly set flags override it.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, false)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("section") {
		cfg.Section = a.section
	}
	if flags.Changed("workers") {
		cfg.Workers = a.workers
	}
	if cfg.Section != "" {
		if _, err := metaspector.ParseSection(cfg.Section); err != nil {
			return err
		}
	}

	a.cfg = cfg
	a.logger = slog.New(console.NewHandler(cmd.ErrOrStderr(), &console.HandlerOptions{
		Level:      config.ParseLevel(cfg.LogLevel),
		TimeFormat: time.TimeOnly,
	}))
	return nil
}

// options translates the resolved configuration into library options.
func (a *app) options() []metaspector.Option {
	opts := []metaspector.Option{
		metaspector.WithLogger(a.logger),
		metaspector.WithHTTPClient(&http.Client{Timeout: a.cfg.Remote.Timeout.Duration}),
		metaspector.WithRemoteChunkSize(a.cfg.Remote.ChunkSize),
		metaspector.WithMaxRemoteFetches(a.cfg.Remote.MaxFetches),
	}
	if a.cfg.Section != "" {
		opts = append(opts, metaspector.WithSection(metaspector.Section(a.cfg.Section)))
	}
	if a.cfg.DetectAtmos != nil {
		opts = append(opts, metaspector.WithAtmosDetection(*a.cfg.DetectAtmos))
	}
	if a.cfg.ScanSEI != nil {
		opts = append(opts, metaspector.WithSEIScan(*a.cfg.ScanSEI))
	}
	return opts
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := metaspector.GetVersionInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "metaspector %s (commit %s, built %s, %s)\n",
				info.Version, info.GitCommit, info.BuildTime, info.GoVersion)
			return nil
		},
		DisableFlagsInUseLine: true,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
