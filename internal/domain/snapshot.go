package domain

import "time"

// Snapshot is one persisted aggregate for a group.
type Snapshot struct {
	GroupName string
	Counts    Counts
	CreatedAt time.Time
}

// ChartArtifact is a rendered image owned by the caller.
type ChartArtifact struct {
	Name        string
	ContentType string
	Data        []byte
}
