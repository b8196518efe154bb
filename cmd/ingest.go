package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/diffseries/internal/git"
	"github.com/masmgr/diffseries/internal/output"
	"github.com/masmgr/diffseries/internal/store"
	"github.com/masmgr/diffseries/internal/validation"
)

// IngestCmd returns the ingest command.
func IngestCmd() *cli.Command {
	flags := withFlags(
		repoFlags()[:1],
		rangeFlags(),
		filterFlags(),
		outputFlags(),
		[]cli.Flag{
			&cli.BoolFlag{
				Name:  "replace",
				Usage: "Replace an existing series with the same name",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Leave the series open for further appends",
			},
		},
	)

	return &cli.Command{
		Name:      "ingest",
		Aliases:   []string{"i"},
		Usage:     "Read a revision range from Git and store it as a series",
		ArgsUsage: "<series>",
		Flags:     flags,
		Action:    ingestAction,
	}
}

func ingestAction(c *cli.Context) error {
	if err := requireArgs(c, 1, "<series>"); err != nil {
		return err
	}
	name := c.Args().First()

	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		opts, err := ctx.ReadOptions(c)
		if err != nil {
			return err
		}
		changeSets, err := readChangeSets(c.Context, opts)
		if err != nil {
			return err
		}
		if len(changeSets) == 0 {
			return errors.New("no commits found in the specified range")
		}

		if c.Bool("replace") {
			if err := ctx.Store.Delete(name); err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}
		builder, err := storeSeries(ctx, name, changeSets, !c.Bool("open"))
		if err != nil {
			return err
		}
		ctx.Logger.Info("ingested series", "series", name, "commits", len(changeSets))

		token, err := builder.Token()
		if err != nil {
			return err
		}

		writer, outOpts := ctx.ReportWriter(c)
		return writer.WriteValidation(&output.ValidationReport{
			Range:   opts.Range,
			Commits: len(changeSets),
			Tip:     builder.Tip(),
			Token:   token,
		}, outOpts)
	})
}

// storeSeries creates the series name and appends every change set to it,
// merging each commit into a validation tree on the way. A series that
// cannot be stored completely is removed again.
func storeSeries(ctx *CommandContext, name string, changeSets []git.CommitChangeSet, finalize bool) (_ *validation.Builder, err error) {
	if err := ctx.Store.CreateSeries(name); err != nil {
		return nil, err
	}
	defer func() {
		if err == nil {
			return
		}
		if derr := ctx.Store.Delete(name); derr != nil {
			ctx.Logger.Warn("failed to remove partially ingested series", "series", name, "error", derr)
		}
	}()

	builder := validation.NewBuilder()
	for _, cs := range changeSets {
		commit := cs.SeriesCommit()
		diffs := cs.FileDiffs()

		if err := builder.Add(commit.CommitID, commit.ParentID, diffs); err != nil {
			return nil, err
		}
		if err := ctx.Store.AppendCommit(name, commit, diffs); err != nil {
			return nil, fmt.Errorf("append %s: %w", commit.CommitID, err)
		}
		ctx.Logger.Debug("appended commit", "series", name, "commit", commit.CommitID, "files", len(diffs))
	}

	if finalize {
		if err := ctx.Store.Finalize(name); err != nil {
			return nil, err
		}
	}
	return builder, nil
}

func readChangeSets(ctx context.Context, opts git.ReadOptions) ([]git.CommitChangeSet, error) {
	reader, err := git.NewHistoryReader(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return readWith(ctx, reader)
}

func readWith(ctx context.Context, reader git.RepositoryReader) ([]git.CommitChangeSet, error) {
	changeSets, err := reader.ReadChanges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return changeSets, nil
}
