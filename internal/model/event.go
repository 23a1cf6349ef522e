package model

import (
	"time"

	"github.com/google/uuid"
)

// CompletionEvent is published after every derivative of a source was stored.
type CompletionEvent struct {
	InvocationID uuid.UUID      `json:"invocation_id"`
	Bucket       string         `json:"bucket"`
	SourceKey    string         `json:"source_key"`
	Quality      float64        `json:"quality"`
	Derivatives  []DerivedAsset `json:"derivatives"`
	CompletedAt  time.Time      `json:"completed_at"`
}
