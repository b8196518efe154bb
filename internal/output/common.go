package output

import (
	"io"
	"os"

	"github.com/masmgr/diffseries/internal/series"
)

const reportDateTimeLayout = "2006-01-02T15:04:05"

func limitTop[T any](items []T, top int) []T {
	if top <= 0 || top >= len(items) {
		return items
	}
	return items[:top]
}

func openOutputWriter(outputPath string) (io.Writer, *os.File, error) {
	if outputPath == "" {
		return os.Stdout, nil, nil
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

func truncateMessage(msg string, maxLen int) string {
	if len(msg) <= maxLen {
		return msg
	}
	return msg[:maxLen-3] + "..."
}

// fileLabel renders a FileDiff as "path" or "old -> new" for moves.
func fileLabel(fd *series.FileDiff) string {
	if fd.SourcePath != fd.DestPath && !fd.IsNew() {
		return fd.SourcePath + " -> " + fd.DestPath
	}
	return fd.DestPath
}

func commitLabel(c *series.Commit) string {
	if c == nil {
		return "-"
	}
	return shortSHA(c.CommitID)
}
