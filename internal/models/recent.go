package models

import "time"

// RecentEntry is one recently visited portal module.
type RecentEntry struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Icon      string    `json:"icon"`
	Timestamp time.Time `json:"timestamp"`
}
