package clips

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no clip has the requested ID
var ErrNotFound = errors.New("clip not found")

// Clip is a video file known to the catalog. Derived clips point at the clip
// they were cut from through ParentID and record the edit in Operation.
type Clip struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"-"`
	Duration  float64   `json:"duration"`
	Size      int64     `json:"size"`
	ParentID  string    `json:"parent_id,omitempty"`
	Operation string    `json:"operation,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists clips
type Store interface {
	Add(ctx context.Context, clip *Clip) error
	Get(ctx context.Context, id string) (*Clip, error)
	// List returns clips newest first
	List(ctx context.Context) ([]*Clip, error)
	Remove(ctx context.Context, id string) error
	Close() error
}

// NewID returns a time-ordered clip ID
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// prepare fills in the ID and creation time and checks required fields
func prepare(clip *Clip) error {
	if clip == nil {
		return fmt.Errorf("clip is nil")
	}
	if clip.Path == "" {
		return fmt.Errorf("clip path is required")
	}
	if clip.Duration < 0 {
		return fmt.Errorf("clip duration must not be negative")
	}
	if clip.ID == "" {
		clip.ID = NewID()
	}
	if clip.CreatedAt.IsZero() {
		clip.CreatedAt = time.Now().UTC()
	}
	return nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
