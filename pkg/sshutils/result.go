package sshutils

import "strings"

// CommandResult carries the outcome of one remote command. Remote scripts
// signal success solely through their exit code; stdout is structured only
// for the status probe's ordered lines.
type CommandResult struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports a zero exit code.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// StdoutLines splits stdout into trimmed, non-empty lines.
func (r CommandResult) StdoutLines() []string {
	var lines []string
	for _, line := range strings.Split(r.Stdout, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
