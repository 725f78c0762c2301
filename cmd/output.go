package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"sigs.k8s.io/yaml"

	"github.com/dcos/dcos-test-utils/internal/config"
	"github.com/dcos/dcos-test-utils/internal/models"
)

func printObject(w io.Writer, cfg *config.Configuration, v any) error {
	var (
		data []byte
		err  error
	)
	switch cfg.Output {
	case "yaml":
		data, err = yaml.Marshal(v)
	default:
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

var (
	okColor     = color.New(color.FgGreen, color.Bold)
	failColor   = color.New(color.FgRed, color.Bold)
	headerColor = color.New(color.FgCyan)
)

// printResults writes one block per host: a status line then its output.
func printResults(w io.Writer, results []models.CommandResult) {
	for _, r := range results {
		status := okColor.Sprint("OK")
		if r.Failed() {
			status = failColor.Sprintf("FAILED (%d)", r.ReturnCode)
		}
		fmt.Fprintf(w, "%s %s\n", headerColor.Sprintf("[%s]", r.Host), status)
		for _, line := range r.Stdout {
			if line != "" {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
		for _, line := range r.Stderr {
			if line != "" {
				fmt.Fprintf(w, "  %s\n", failColor.Sprint(line))
			}
		}
	}
}

func printRuns(w io.Writer, runs []models.RunSummary) {
	for _, run := range runs {
		status := okColor.Sprint("ok")
		if run.Failed > 0 {
			status = failColor.Sprintf("%d failed", run.Failed)
		}
		fmt.Fprintf(w, "%s  %s  %d hosts  %d results  %s\n",
			headerColor.Sprint(run.RunID), run.StartedAt.Format("2006-01-02 15:04:05"), run.Hosts, run.Results, status)
	}
}
