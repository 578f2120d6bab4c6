package tmux

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)|\x1b[()][0-9A-Za-z]`)

	controlPattern = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)

	// Spinner glyphs the CLI animates while it works.
	spinnerPattern = regexp.MustCompile(`[⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏·✳✽✶✻✢]`)

	// "(45s · 1234 tokens · esc to interrupt)" and similar counters.
	statusCounterPattern = regexp.MustCompile(`\([^)]*\d+s\s*[^)]*(?:tokens|↑|↓)[^)]*\)`)

	clockPattern   = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\b`)
	percentPattern = regexp.MustCompile(`\b\d{1,3}%`)
	blankLines     = regexp.MustCompile(`\n{3,}`)
)

// Normalize strips escape sequences and the animated parts of a pane (spinners,
// elapsed-time counters, clocks, percentages) so that only real output
// changes the fingerprint.
func Normalize(content string) string {
	s := ansiPattern.ReplaceAllString(content, "")
	s = controlPattern.ReplaceAllString(s, "")
	s = spinnerPattern.ReplaceAllString(s, "")
	s = statusCounterPattern.ReplaceAllString(s, "(STATUS)")
	s = clockPattern.ReplaceAllString(s, "HH:MM")
	s = percentPattern.ReplaceAllString(s, "N%")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	s = strings.Join(lines, "\n")

	return blankLines.ReplaceAllString(strings.TrimRight(s, "\n"), "\n\n")
}

// Fingerprint hashes the normalized content. Empty content hashes to "".
func Fingerprint(content string) string {
	if content == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(Normalize(content)))
	return hex.EncodeToString(sum[:])
}
