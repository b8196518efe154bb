package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masmgr/diffseries/internal/history"
	"github.com/masmgr/diffseries/internal/output"
)

// InterdiffCmd returns the interdiff command.
func InterdiffCmd() *cli.Command {
	return &cli.Command{
		Name:      "interdiff",
		Usage:     "Compare the commit histories of two series",
		ArgsUsage: "<old-series> <new-series>",
		Flags:     outputFlags(),
		Action:    interdiffAction,
	}
}

func interdiffAction(c *cli.Context) error {
	if err := requireArgs(c, 2, "<old-series> <new-series>"); err != nil {
		return err
	}

	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		oldName, newName := c.Args().Get(0), c.Args().Get(1)
		oldSeries, err := ctx.LoadSeries(oldName)
		if err != nil {
			return err
		}
		newSeries, err := ctx.LoadSeries(newName)
		if err != nil {
			return err
		}

		entries, summary := history.Summarize(history.Diff(oldSeries.Commits(), newSeries.Commits()))

		writer, opts := ctx.ReportWriter(c)
		return writer.WriteHistory(&output.HistoryReport{
			Old:     oldName,
			New:     newName,
			Entries: entries,
			Summary: summary,
		}, opts)
	})
}
