package testenv

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"go.uber.org/zap"
)

const XFailFlakeReportFile = "xfailflake.json"

// XFailFlakeMeta identifies a known flaky test.
type XFailFlakeMeta struct {
	Jira   string `json:"jira"`
	Reason string `json:"reason"`
	Since  string `json:"since"`
}

type XFailFlakeRecord struct {
	Module     string         `json:"module"`
	Name       string         `json:"name"`
	Path       string         `json:"path"`
	XFailFlake XFailFlakeMeta `json:"xfailflake"`
}

var xfailflakes = struct {
	lock    sync.Mutex
	records []XFailFlakeRecord
}{}

// XFailFlake runs body of a known flaky spec. Gomega failures in body are
// reported on the running test and do not fail it. It returns the failures.
func XFailFlake(meta XFailFlakeMeta, body func()) []string {
	report := ginkgo.CurrentSpecReport()
	path := report.LeafNodeLocation.FileName
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	xfailflakes.lock.Lock()
	xfailflakes.records = append(xfailflakes.records, XFailFlakeRecord{
		Module:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Name:       report.LeafNodeText,
		Path:       path,
		XFailFlake: meta,
	})
	xfailflakes.lock.Unlock()

	failures := gomega.InterceptGomegaFailures(body)
	if len(failures) > 0 {
		zap.S().Named("testenv").Warnw("known flaky test failed", "jira", meta.Jira, "reason", meta.Reason, "failures", failures)
		ginkgo.AddReportEntry("xfailflake", fmt.Sprintf("%s: %s\n%s", meta.Jira, meta.Reason, strings.Join(failures, "\n")))
	}
	return failures
}

// XFailFlakeRecords returns the flaky tests run so far.
func XFailFlakeRecords() []XFailFlakeRecord {
	xfailflakes.lock.Lock()
	defer xfailflakes.lock.Unlock()
	return append([]XFailFlakeRecord{}, xfailflakes.records...)
}

// WriteXFailFlakeReport writes the flaky tests run so far to path.
func WriteXFailFlakeReport(path string) error {
	data, err := json.MarshalIndent(XFailFlakeRecords(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func resetXFailFlakes() {
	xfailflakes.lock.Lock()
	defer xfailflakes.lock.Unlock()
	xfailflakes.records = nil
}
