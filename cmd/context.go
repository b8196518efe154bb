package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/diffseries/config"
	"github.com/masmgr/diffseries/internal/ancestry"
	"github.com/masmgr/diffseries/internal/git"
	"github.com/masmgr/diffseries/internal/output"
	"github.com/masmgr/diffseries/internal/patch"
	"github.com/masmgr/diffseries/internal/series"
	"github.com/masmgr/diffseries/internal/store"
)

// CommandContext holds common state for command execution.
// It encapsulates the shared setup logic across all commands.
type CommandContext struct {
	Config *config.Config
	Logger *slog.Logger
	Store  *store.Store
}

// NewCommandContext loads configuration and sets up logging. The series
// store is opened when openStore is set.
func NewCommandContext(c *cli.Context, openStore bool) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(c, os.Stderr)
	if !openStore {
		return &CommandContext{Config: cfg, Logger: logger}, nil
	}

	st, err := store.Open(cfg.Store.Path, store.Options{
		Compress: cfg.Store.Compress,
		Timeout:  time.Duration(cfg.Store.Timeout) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", cfg.Store.Path, err)
	}
	logger.Debug("opened store", "path", cfg.Store.Path, "compress", cfg.Store.Compress)

	return &CommandContext{Config: cfg, Logger: logger, Store: st}, nil
}

// Close releases the store, if open.
func (ctx *CommandContext) Close() error {
	if ctx.Store == nil {
		return nil
	}
	return ctx.Store.Close()
}

// LoadSeries loads a stored series. A series still open for appends is
// finalized in memory so that it can be queried.
func (ctx *CommandContext) LoadSeries(name string) (*series.Series, error) {
	s, err := ctx.Store.Load(name)
	if err != nil {
		return nil, err
	}
	if !s.Finalized() {
		ctx.Logger.Debug("series is not finalized; querying a snapshot", "series", name)
		s.Finalize()
	}
	return s, nil
}

// Resolver loads a series and creates an ancestry resolver for it.
func (ctx *CommandContext) Resolver(name string) (*ancestry.Resolver, error) {
	s, err := ctx.LoadSeries(name)
	if err != nil {
		return nil, err
	}
	return ancestry.NewResolver(s, ancestry.WithLogger(ctx.Logger))
}

// ReadOptions creates git read options from flags and configuration.
func (ctx *CommandContext) ReadOptions(c *cli.Context) (git.ReadOptions, error) {
	mode, err := parseRenameDetectFlag(ctx.Config.Diff.RenameDetect)
	if err != nil {
		return git.ReadOptions{}, err
	}
	return git.ReadOptions{
		RepoPath:     c.String("repo"),
		Range:        c.String("range"),
		Include:      ctx.Config.Filters.Include,
		Exclude:      ctx.Config.Filters.Exclude,
		RenameDetect: mode,
		MaxDiffSize:  ctx.Config.Diff.MaxDiffSize,
	}, nil
}

// FileRepository opens the repository used to fetch file content.
func (ctx *CommandContext) FileRepository(c *cli.Context) (git.FileRepository, error) {
	repoPath := c.String("repo")
	if c.Bool("git-cli") {
		return git.NewCLIRepository(repoPath), nil
	}
	repo, err := git.OpenRepository(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return repo, nil
}

// Patcher creates the configured patch implementation.
func (ctx *CommandContext) Patcher() patch.Patcher {
	if ctx.Config.Patch.Tool == config.PatchToolCommand {
		return patch.NewCommand(ctx.Config.Patch.Path)
	}
	return patch.NewBuiltin()
}

// OutputOptions creates OutputOptions from CLI flags and configuration.
func (ctx *CommandContext) OutputOptions(c *cli.Context) output.OutputOptions {
	return output.OutputOptions{
		Format:     getOutputFormat(ctx.Config.Output.Format),
		Top:        c.Int("top"),
		OutputPath: c.String("output"),
	}
}

// ReportWriter creates a report writer for the configured format.
func (ctx *CommandContext) ReportWriter(c *cli.Context) (output.ReportWriter, output.OutputOptions) {
	opts := ctx.OutputOptions(c)
	return output.NewReportWriter(opts.Format), opts
}

// executeWithContext runs fn with a command context and closes it after.
func executeWithContext(c *cli.Context, fn func(ctx *CommandContext, c *cli.Context) error) error {
	return execute(c, true, fn)
}

// executeWithoutStore runs fn with a command context that has no store.
func executeWithoutStore(c *cli.Context, fn func(ctx *CommandContext, c *cli.Context) error) error {
	return execute(c, false, fn)
}

func execute(c *cli.Context, openStore bool, fn func(ctx *CommandContext, c *cli.Context) error) (err error) {
	ctx, err := NewCommandContext(c, openStore)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ctx.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, c)
}

// resolveCommit finds a commit of s by full or abbreviated commit ID.
// An empty ID yields nil.
func resolveCommit(s *series.Series, id string) (*series.Commit, error) {
	if id == "" {
		return nil, nil
	}
	if c := s.CommitByID(id); c != nil {
		return c, nil
	}

	var found *series.Commit
	for _, c := range s.Commits() {
		if !strings.HasPrefix(c.CommitID, id) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("ambiguous commit %q in series %s", id, s.Name)
		}
		found = c
	}
	if found == nil {
		return nil, fmt.Errorf("commit %q not in series %s", id, s.Name)
	}
	return found, nil
}

// requireArgs checks the number of positional arguments.
func requireArgs(c *cli.Context, n int, usage string) error {
	if c.NArg() != n {
		return errors.New("usage: " + c.App.Name + " " + c.Command.Name + " " + usage)
	}
	return nil
}
