package molecule

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// EventType names a molecule lifecycle event.
type EventType string

const (
	EventMoleculeConverted EventType = "molecule.converted"
	EventMoleculeAnalyzed  EventType = "molecule.analyzed"
)

// Event is published after a conversion or an analysis completes. Failed
// requests are published too, with Error set.
type Event struct {
	Type           EventType `json:"type"`
	SMILES         string    `json:"smiles"`
	Name           string    `json:"name,omitempty"`
	ToxicEndpoints []string  `json:"toxic_endpoints,omitempty"`
	Artifacts      []string  `json:"artifacts,omitempty"`
	// ArtifactURLs maps artifact keys to time-limited download links.
	ArtifactURLs map[string]string `json:"artifact_urls,omitempty"`
	RequestID    string            `json:"request_id,omitempty"`
	DurationMS   int64             `json:"duration_ms"`
	OccurredAt   time.Time         `json:"occurred_at"`
	Error        string            `json:"error,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, smiles string, took time.Duration) *Event {
	return &Event{
		Type:       t,
		SMILES:     smiles,
		DurationMS: took.Milliseconds(),
		OccurredAt: time.Now().UTC(),
	}
}

// EventPublisher emits events to an external bus.
type EventPublisher interface {
	Publish(ctx context.Context, ev *Event) error
}

// ArtifactStore archives generated files. PresignGet with a zero expiry uses
// the store's default.
type ArtifactStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Artifact file names under a molecule's key prefix.
const (
	ArtifactMolBlock = "structure.mol"
	ArtifactImage3D  = "depiction_3d.png"
	ArtifactImage2D  = "depiction_2d.svg"
)

// ArtifactKey returns the object key for file under the molecule's prefix.
// The prefix is the hex SHA-256 of the SMILES so that keys are path-safe.
func ArtifactKey(smiles, file string) string {
	sum := sha256.Sum256([]byte(smiles))
	return hex.EncodeToString(sum[:]) + "/" + file
}

//Personal.AI order the ending
