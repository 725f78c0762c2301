package models

import "time"

// Bundle is a diagnostics bundle downloaded from the cluster.
type Bundle struct {
	ID           string    `json:"id"`
	Cluster      string    `json:"cluster"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	DownloadedAt time.Time `json:"downloadedAt"`
}
