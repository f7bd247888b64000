// Package debug holds the operator tools behind the doctor and search subcommands.
package debug

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/latoulicious/TarumaeDJ/pkg/common"
)

// ToolCheck is the outcome of probing one external program
type ToolCheck struct {
	Name    string
	Path    string
	Version string
	Err     error
}

// OK reports whether the tool answered its version query
func (c ToolCheck) OK() bool {
	return c.Err == nil
}

// CheckTools runs yt-dlp and ffmpeg the way the bot will call them
func CheckTools(ctx context.Context, run common.CommandRunner, ytdlpPath, ffmpegPath string) []ToolCheck {
	tools := []struct {
		name string
		path string
		args []string
	}{
		{name: "yt-dlp", path: ytdlpPath, args: []string{"--version"}},
		{name: "ffmpeg", path: ffmpegPath, args: []string{"-version"}},
	}

	checks := make([]ToolCheck, 0, len(tools))
	for _, tool := range tools {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		stdout, stderr, err := run(ctx, tool.path, tool.args...)
		cancel()

		check := ToolCheck{Name: tool.name, Path: tool.path}
		if err != nil {
			check.Err = fmt.Errorf("%s not usable: %w %s", tool.path, err, strings.TrimSpace(string(stderr)))
		} else {
			check.Version = firstLine(string(stdout))
		}
		checks = append(checks, check)
	}
	return checks
}

// PrintChecks writes one line per check and reports whether all passed
func PrintChecks(w io.Writer, checks []ToolCheck) bool {
	allOK := true
	for _, check := range checks {
		if check.OK() {
			fmt.Fprintf(w, "✅ %s is available: %s\n", check.Name, check.Version)
			continue
		}
		allOK = false
		fmt.Fprintf(w, "❌ %s: %v\n", check.Name, check.Err)
	}
	return allOK
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
