package main

import (
	"os"
	"strconv"
	"strings"

	"taskdesk-cli/internal/cli"
)

func isTaskID(s string) bool {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil && id > 0
}

// rewriteDirectTaskLookupArgs makes `taskdesk <task-id>` work like `taskdesk tasks show <task-id>`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten before parsing.
// Persistent flags may come first (`taskdesk --pretty 42`), so we look for the first positional token.
func rewriteDirectTaskLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without their value so a task id is never consumed by mistake.
	valueFlags := map[string]bool{
		"--base-url":  true,
		"--log-level": true,
		"--log-file":  true,
		"--state-dir": true,
		"--timeout":   true,
		"--format":    true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isTaskID(argv[i+1]) {
				return insertShow(argv, i+1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}

		// First positional token.
		if isTaskID(a) {
			return insertShow(argv, i)
		}
		return argv
	}

	return argv
}

func insertShow(argv []string, at int) []string {
	out := make([]string, 0, len(argv)+2)
	out = append(out, argv[:at]...)
	out = append(out, "tasks", "show")
	out = append(out, argv[at:]...)
	return out
}

func main() {
	os.Args = rewriteDirectTaskLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
