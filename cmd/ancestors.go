package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masmgr/diffseries/internal/ancestry"
	"github.com/masmgr/diffseries/internal/output"
	"github.com/masmgr/diffseries/internal/pathfilter"
)

// AncestorsCmd returns the ancestors command.
func AncestorsCmd() *cli.Command {
	flags := withFlags(outputFlags(), filterFlags(), []cli.Flag{
		&cli.StringFlag{
			Name:  "flavor",
			Usage: "Ancestor flavor (minimal, compliment)",
			Value: "minimal",
		},
		&cli.IntFlag{
			Name:    "position",
			Aliases: []string{"p"},
			Usage:   "Only FileDiffs of the commit at this position",
		},
	})

	return &cli.Command{
		Name:      "ancestors",
		Aliases:   []string{"a"},
		Usage:     "Show the ancestor FileDiffs of each FileDiff in a series",
		ArgsUsage: "<series>",
		Flags:     flags,
		Action:    ancestorsAction,
	}
}

func ancestorsAction(c *cli.Context) error {
	if err := requireArgs(c, 1, "<series>"); err != nil {
		return err
	}
	flavor, err := ancestry.ParseFlavor(c.String("flavor"))
	if err != nil {
		return err
	}

	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		name := c.Args().First()
		resolver, err := ctx.Resolver(name)
		if err != nil {
			return err
		}
		filter, err := pathfilter.New(ctx.Config.Filters.Include, ctx.Config.Filters.Exclude)
		if err != nil {
			return err
		}

		position := c.Int("position")
		var items []output.AncestorItem
		for _, fd := range resolver.Series().FileDiffs() {
			if position > 0 && fd.CommitPosition != position {
				continue
			}
			if !filter.Match(fd.DestPath) {
				continue
			}
			anc, err := resolver.Ancestors(fd, flavor)
			if err != nil {
				return err
			}
			items = append(items, output.AncestorItem{FileDiff: fd, Ancestors: anc})
		}
		ctx.Logger.Debug("resolved ancestors", "series", name, "filediffs", len(items), "computed", resolver.Computed())

		writer, opts := ctx.ReportWriter(c)
		return writer.WriteAncestors(&output.AncestorsReport{
			Series: name,
			Flavor: flavor,
			Items:  items,
		}, opts)
	})
}
