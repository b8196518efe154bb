package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/diffseries/config"
	"github.com/masmgr/diffseries/internal/git"
	"github.com/masmgr/diffseries/internal/output"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "diffseries",
		Usage:   "Track commit series, file ancestry and original file content",
		Version: "1.0.0",
		Commands: []*cli.Command{
			IngestCmd(),
			SeriesCmd(),
			AncestorsCmd(),
			FilesCmd(),
			InterdiffCmd(),
			OriginalCmd(),
			ValidateCmd(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Path to the series store (default from config)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
	}
}

// Output flags shared across reporting commands
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (console, json, markdown)",
		},
		&cli.IntFlag{
			Name:    "top",
			Aliases: []string{"n"},
			Usage:   "Number of results to show (0 for all)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: stdout)",
		},
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "include",
			Usage: "Glob patterns to include (can be specified multiple times)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Glob patterns to exclude (can be specified multiple times)",
		},
	}
}

func repoFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   "Path to Git repository",
			Value:   ".",
		},
		&cli.BoolFlag{
			Name:  "git-cli",
			Usage: "Read file content with the git binary instead of go-git",
		},
	}
}

func rangeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "range",
			Usage: "Revision range base..head (default: first-parent history of HEAD)",
		},
		&cli.StringFlag{
			Name:  "rename-detect",
			Usage: "Rename detection mode (off, simple, aggressive)",
		},
		&cli.Int64Flag{
			Name:  "max-diff-size",
			Usage: "Reject file diffs larger than this many bytes (0 disables)",
			Value: -1,
		},
	}
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, g := range groups {
		flags = append(flags, g...)
	}
	return flags
}

// getOutputFormat parses the output format flag.
func getOutputFormat(s string) output.OutputFormat {
	switch s {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatConsole
	}
}

// parseRenameDetectFlag parses the rename detection mode.
func parseRenameDetectFlag(s string) (git.RenameDetectMode, error) {
	switch s {
	case "", "auto", "aggressive", "similarity":
		return git.RenameDetectAggressive, nil
	case "off", "false", "none":
		return git.RenameDetectOff, nil
	case "simple", "exact":
		return git.RenameDetectSimple, nil
	default:
		return git.RenameDetectOff, fmt.Errorf("invalid rename detection mode: %s (expected off, simple or aggressive)", s)
	}
}

// loadConfig loads configuration from file or defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Apply overrides from CLI
	if storePath := c.String("store"); storePath != "" {
		cfg.Store.Path = storePath
	}
	if includes := c.StringSlice("include"); len(includes) > 0 {
		cfg.Filters.Include = includes
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Filters.Exclude = excludes
	}
	if mode := c.String("rename-detect"); mode != "" {
		cfg.Diff.RenameDetect = mode
	}
	if size := c.Int64("max-diff-size"); size >= 0 && c.IsSet("max-diff-size") {
		cfg.Diff.MaxDiffSize = size
	}
	if format := c.String("format"); format != "" {
		cfg.Output.Format = format
	}

	return cfg, nil
}

// newLogger creates the diagnostic logger. Logs go to stderr so they never
// mix with report output.
func newLogger(c *cli.Context, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Run executes the CLI application.
func Run() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
