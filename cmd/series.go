package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/diffseries/internal/output"
)

// SeriesCmd returns the series command.
func SeriesCmd() *cli.Command {
	flags := withFlags(outputFlags(), []cli.Flag{
		&cli.BoolFlag{
			Name:  "delete",
			Usage: "Delete the named series",
		},
		&cli.BoolFlag{
			Name:  "finalize",
			Usage: "Finalize the named series",
		},
	})

	return &cli.Command{
		Name:      "series",
		Aliases:   []string{"s"},
		Usage:     "List stored series, or show the commits of one series",
		ArgsUsage: "[series]",
		Flags:     flags,
		Action:    seriesAction,
	}
}

func seriesAction(c *cli.Context) error {
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		writer, opts := ctx.ReportWriter(c)

		if c.NArg() == 0 {
			infos, err := ctx.Store.List()
			if err != nil {
				return err
			}
			return writer.WriteSeriesList(&output.SeriesListReport{
				StorePath:   ctx.Config.Store.Path,
				GeneratedAt: time.Now(),
				Series:      infos,
			}, opts)
		}

		name := c.Args().First()
		switch {
		case c.Bool("delete"):
			if err := ctx.Store.Delete(name); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Deleted series %s\n", name)
			return nil
		case c.Bool("finalize"):
			if err := ctx.Store.Finalize(name); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Finalized series %s\n", name)
			return nil
		}

		s, err := ctx.Store.Load(name)
		if err != nil {
			return err
		}
		return writer.WriteSeries(&output.SeriesReport{Series: s}, opts)
	})
}
