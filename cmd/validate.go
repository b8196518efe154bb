package cmd

import (
	"errors"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/diffseries/internal/output"
	"github.com/masmgr/diffseries/internal/series"
	"github.com/masmgr/diffseries/internal/validation"
)

// ValidateCmd returns the validate command.
func ValidateCmd() *cli.Command {
	flags := withFlags(repoFlags(), rangeFlags(), filterFlags(), outputFlags(), []cli.Flag{
		&cli.StringFlag{
			Name:  "token",
			Usage: "Validation token from a previous run (instead of reading --range)",
		},
		&cli.StringFlag{
			Name:  "parent",
			Usage: "Commit to start existence checks from (default: tip of the range)",
		},
		&cli.StringFlag{
			Name:  "base",
			Usage: "Base commit for repository lookups of UNKNOWN revisions",
		},
		&cli.StringSliceFlag{
			Name:  "check",
			Usage: "File to check as path@revision (revision defaults to UNKNOWN)",
		},
	})

	return &cli.Command{
		Name:   "validate",
		Usage:  "Build a commit validation token, or check file existence against one",
		Flags:  flags,
		Action: validateAction,
	}
}

func validateAction(c *cli.Context) error {
	return executeWithoutStore(c, func(ctx *CommandContext, c *cli.Context) error {
		report := &output.ValidationReport{Range: c.String("range")}

		var (
			tree validation.Tree
			base = c.String("base")
		)
		if token := c.String("token"); token != "" {
			var err error
			if tree, err = validation.Deserialize(token); err != nil {
				return err
			}
			report.Token = token
			report.Commits = len(tree)
		} else {
			opts, err := ctx.ReadOptions(c)
			if err != nil {
				return err
			}
			changeSets, err := readChangeSets(c.Context, opts)
			if err != nil {
				return err
			}

			builder := validation.NewBuilder()
			for _, cs := range changeSets {
				commit := cs.SeriesCommit()
				if err := builder.Add(commit.CommitID, commit.ParentID, cs.FileDiffs()); err != nil {
					return err
				}
			}
			if report.Token, err = builder.Token(); err != nil {
				return err
			}
			tree = builder.Tree()
			report.Commits = len(changeSets)
			report.Tip = builder.Tip()
			if base == "" && len(changeSets) > 0 {
				base = changeSets[0].Commit.ParentSHA
			}
		}

		checks := c.StringSlice("check")
		if len(checks) == 0 {
			writer, opts := ctx.ReportWriter(c)
			return writer.WriteValidation(report, opts)
		}

		parent := c.String("parent")
		if parent == "" {
			parent = report.Tip
		}
		if parent == "" {
			return errors.New("--parent is required to check files against a token")
		}

		repo, err := ctx.FileRepository(c)
		if err != nil {
			return err
		}

		for _, check := range checks {
			path, revision := parseCheck(check)
			exists, err := validation.FileExists(c.Context, tree, validation.Query{
				ParentID:     parent,
				Path:         path,
				Revision:     revision,
				BaseCommitID: base,
			}, repo)
			if err != nil {
				return err
			}
			ctx.Logger.Debug("checked file", "path", path, "revision", revision, "exists", exists)
			report.Checks = append(report.Checks, output.ExistsCheck{Path: path, Revision: revision, Exists: exists})
		}

		writer, opts := ctx.ReportWriter(c)
		return writer.WriteValidation(report, opts)
	})
}

// parseCheck splits "path@revision". A missing revision is UNKNOWN.
func parseCheck(s string) (path, revision string) {
	idx := strings.LastIndex(s, "@")
	if idx <= 0 || idx == len(s)-1 {
		return strings.TrimSuffix(s, "@"), series.Unknown
	}
	return s[:idx], s[idx+1:]
}
