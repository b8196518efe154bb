package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/diffseries/internal/original"
	"github.com/masmgr/diffseries/internal/series"
)

// OriginalCmd returns the original command.
func OriginalCmd() *cli.Command {
	flags := withFlags(repoFlags(), []cli.Flag{
		&cli.Int64Flag{
			Name:  "id",
			Usage: "FileDiff ID",
		},
		&cli.StringFlag{
			Name:  "path",
			Usage: "Destination path of the FileDiff (with --position)",
		},
		&cli.IntFlag{
			Name:    "position",
			Aliases: []string{"p"},
			Usage:   "Commit position of the FileDiff (with --path)",
		},
		&cli.BoolFlag{
			Name:  "patched",
			Usage: "Print the content after the FileDiff is applied",
		},
		&cli.StringSliceFlag{
			Name:  "encoding",
			Usage: "Encodings to try when decoding repository content",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: stdout)",
		},
	})

	return &cli.Command{
		Name:      "original",
		Aliases:   []string{"o"},
		Usage:     "Reconstruct the original file content a FileDiff applies to",
		ArgsUsage: "<series>",
		Flags:     flags,
		Action:    originalAction,
	}
}

func originalAction(c *cli.Context) error {
	if err := requireArgs(c, 1, "<series>"); err != nil {
		return err
	}

	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		resolver, err := ctx.Resolver(c.Args().First())
		if err != nil {
			return err
		}
		s := resolver.Series()

		fd, err := selectFileDiff(s, c.Int64("id"), c.String("path"), c.Int("position"))
		if err != nil {
			return err
		}

		repo, err := ctx.FileRepository(c)
		if err != nil {
			return err
		}

		encodings := ctx.Config.Diff.Encodings
		if flagEncodings := c.StringSlice("encoding"); len(flagEncodings) > 0 {
			encodings = flagEncodings
		}

		var baseCommitID string
		if first := s.Commit(1); first != nil {
			baseCommitID = first.ParentID
		}

		r := original.New(resolver, repo, ctx.Patcher(), original.Options{
			Encodings:    encodings,
			BaseCommitID: baseCommitID,
			Logger:       ctx.Logger,
		})

		var content []byte
		if c.Bool("patched") {
			content, err = r.Patched(c.Context, fd)
		} else {
			content, err = r.Original(c.Context, fd)
		}
		if err != nil {
			return err
		}
		return writeContent(c.String("output"), content)
	})
}

// selectFileDiff finds a FileDiff by ID, or by destination path and commit
// position.
func selectFileDiff(s *series.Series, id int64, path string, position int) (*series.FileDiff, error) {
	if id != 0 {
		fd := s.FileDiff(id)
		if fd == nil {
			return nil, fmt.Errorf("FileDiff %d not in series %s", id, s.Name)
		}
		return fd, nil
	}
	if path == "" || position == 0 {
		return nil, errors.New("either --id or both --path and --position are required")
	}
	fd := s.Lookup(position, path)
	if fd == nil {
		return nil, fmt.Errorf("no FileDiff for %s at position %d in series %s", path, position, s.Name)
	}
	return fd, nil
}

func writeContent(outputPath string, content []byte) error {
	if outputPath == "" {
		_, err := os.Stdout.Write(content)
		return err
	}
	return os.WriteFile(outputPath, content, 0644)
}
