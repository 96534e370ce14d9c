package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportRun records one bulk-load of a transactions file into a store.
type ImportRun struct {
	ID         uuid.UUID
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time
	Loaded     int
	Skipped    int
	Failed     int
}
