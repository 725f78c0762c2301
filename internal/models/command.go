package models

import "time"

// CommandResult is one ssh or scp process recorded after a run.
type CommandResult struct {
	ID         string
	RunID      string
	Host       string
	Cmd        []string
	Stdout     []string
	Stderr     []string
	ReturnCode int
	PID        int
	CreatedAt  time.Time
}

func (c CommandResult) Failed() bool {
	return c.ReturnCode != 0
}

// RunSummary aggregates the results of one dispatch across hosts.
type RunSummary struct {
	RunID     string
	Hosts     int
	Results   int
	Failed    int
	StartedAt time.Time
}
