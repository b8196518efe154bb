package patch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var hunkHeader = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

type hunkLine struct {
	op   byte // ' ', '-' or '+'
	text string
}

type hunk struct {
	oldStart, oldLines int
	newStart, newLines int
	lines              []hunkLine
}

// before returns the lines the hunk expects in the original.
func (h *hunk) before() []string {
	var out []string
	for _, l := range h.lines {
		if l.op != '+' {
			out = append(out, l.text)
		}
	}
	return out
}

// after returns the lines the hunk leaves in place of before.
func (h *hunk) after() []string {
	var out []string
	for _, l := range h.lines {
		if l.op != '-' {
			out = append(out, l.text)
		}
	}
	return out
}

// anchor is the index in the original where the hunk's stated position
// begins.
func (h *hunk) anchor() int {
	if h.oldLines == 0 {
		return h.oldStart
	}
	return h.oldStart - 1
}

// parseHunks reads the hunks of a unified diff. Lines outside hunks (git
// extended headers, ---/+++ lines) are skipped.
func parseHunks(text string) ([]*hunk, error) {
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var hunks []*hunk
	for i := 0; i < len(lines); i++ {
		m := hunkHeader.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}

		h := &hunk{
			oldStart: atoi(m[1], 0),
			oldLines: atoi(m[2], 1),
			newStart: atoi(m[3], 0),
			newLines: atoi(m[4], 1),
		}
		oldLeft, newLeft := h.oldLines, h.newLines
		for (oldLeft > 0 || newLeft > 0) && i+1 < len(lines) {
			i++
			line := lines[i]
			if !strings.HasSuffix(line, "\n") {
				line += "\n"
			}

			op := line[0]
			body := line[1:]
			switch op {
			case ' ', '\n':
				if op == '\n' {
					body = "\n"
				}
				op = ' '
				oldLeft--
				newLeft--
			case '-':
				oldLeft--
			case '+':
				newLeft--
			case '\\':
				markNoNewline(h)
				continue
			default:
				return nil, fmt.Errorf("malformed hunk line %d: %q", i+1, strings.TrimSuffix(lines[i], "\n"))
			}
			if oldLeft < 0 || newLeft < 0 {
				return nil, fmt.Errorf("hunk at line %d is longer than its header", i+1)
			}
			h.lines = append(h.lines, hunkLine{op: op, text: body})
		}
		if oldLeft > 0 || newLeft > 0 {
			return nil, fmt.Errorf("truncated hunk %q", strings.TrimSpace(m[0]))
		}
		if i+1 < len(lines) && strings.HasPrefix(lines[i+1], "\\") {
			i++
			markNoNewline(h)
		}
		hunks = append(hunks, h)
	}
	return hunks, nil
}

// markNoNewline strips the line terminator of the hunk's last line.
func markNoNewline(h *hunk) {
	if n := len(h.lines); n > 0 {
		h.lines[n-1].text = strings.TrimSuffix(h.lines[n-1].text, "\n")
	}
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// applyHunks applies hunks in order. Each hunk is searched for outward
// from its stated position, shifted by the offset the previous hunk was
// found at.
func applyHunks(original string, hunks []*hunk) (string, error) {
	lines := strings.SplitAfter(original, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var (
		out    []string
		pos    int
		offset int
	)
	for n, h := range hunks {
		before := h.before()
		at, ok := locate(lines, before, pos, h.anchor()+offset)
		if !ok {
			return "", fmt.Errorf("hunk %d at line %d", n+1, h.oldStart)
		}
		out = append(out, lines[pos:at]...)
		out = append(out, h.after()...)
		pos = at + len(before)
		offset = at - h.anchor()
	}
	out = append(out, lines[pos:]...)
	return strings.Join(out, ""), nil
}

// locate finds want in lines at or after from, preferring the match
// closest to expected.
func locate(lines, want []string, from, expected int) (int, bool) {
	last := len(lines) - len(want)
	if last < from {
		return 0, false
	}
	expected = clamp(expected, from, last)
	for d := 0; expected-d >= from || expected+d <= last; d++ {
		if i := expected - d; i >= from && matchAt(lines, want, i) {
			return i, true
		}
		if i := expected + d; d > 0 && i <= last && matchAt(lines, want, i) {
			return i, true
		}
	}
	return 0, false
}

func matchAt(lines, want []string, at int) bool {
	for i, w := range want {
		if lines[at+i] != w {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
