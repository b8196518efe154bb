package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masmgr/diffseries/internal/basetip"
	"github.com/masmgr/diffseries/internal/output"
	"github.com/masmgr/diffseries/internal/pathfilter"
)

// FilesCmd returns the files command.
func FilesCmd() *cli.Command {
	flags := withFlags(outputFlags(), filterFlags(), []cli.Flag{
		&cli.StringFlag{
			Name:  "base",
			Usage: "Base commit ID; files changed after it are shown (default: series start)",
		},
		&cli.StringFlag{
			Name:  "tip",
			Usage: "Tip commit ID; files changed up to it are shown (default: series end)",
		},
	})

	return &cli.Command{
		Name:      "files",
		Aliases:   []string{"f"},
		Usage:     "Show the latest FileDiff of each file between a base and tip commit",
		ArgsUsage: "<series>",
		Flags:     flags,
		Action:    filesAction,
	}
}

func filesAction(c *cli.Context) error {
	if err := requireArgs(c, 1, "<series>"); err != nil {
		return err
	}

	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		name := c.Args().First()
		resolver, err := ctx.Resolver(name)
		if err != nil {
			return err
		}
		s := resolver.Series()

		baseCommit, err := resolveCommit(s, c.String("base"))
		if err != nil {
			return err
		}
		tipCommit, err := resolveCommit(s, c.String("tip"))
		if err != nil {
			return err
		}
		var baseID, tipID string
		if baseCommit != nil {
			baseID = baseCommit.CommitID
		}
		if tipCommit != nil {
			tipID = tipCommit.CommitID
		}
		base, tip := basetip.SelectRange(s.Commits(), baseID, tipID)

		files, err := basetip.ResolveFiles(resolver, s.FileDiffs(), base, tip)
		if err != nil {
			return err
		}

		filter, err := pathfilter.New(ctx.Config.Filters.Include, ctx.Config.Filters.Exclude)
		if err != nil {
			return err
		}
		filtered := files[:0]
		for _, f := range files {
			if filter.Match(f.FileDiff.DestPath) {
				filtered = append(filtered, f)
			}
		}

		writer, opts := ctx.ReportWriter(c)
		return writer.WriteFiles(&output.FilesReport{
			Series: name,
			Base:   base,
			Tip:    tip,
			Items:  filtered,
		}, opts)
	})
}
