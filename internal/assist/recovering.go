package assist

import (
	"context"
	"log"

	"github.com/crewdeck/crewdeck/internal/types"
)

// Recovering wraps a primary generator with a fallback. When the
// primary fails (network error, bad API key, unparseable response) the
// same request is replayed against the fallback, so callers always get
// content unless both paths fail.
type Recovering struct {
	primary  Generator
	fallback Generator
	logger   *log.Logger
}

// NewRecovering returns a generator that tries primary first and
// replays failed calls against fallback.
func NewRecovering(primary, fallback Generator) *Recovering {
	return &Recovering{
		primary:  primary,
		fallback: fallback,
		logger:   log.New(log.Writer(), "[assist] ", log.LstdFlags),
	}
}

// GenerateTasks implements Generator.
func (r *Recovering) GenerateTasks(ctx context.Context, instruction string, opts Options) ([]*types.Task, error) {
	tasks, err := r.primary.GenerateTasks(ctx, instruction, opts)
	if err == nil {
		return tasks, nil
	}
	r.logger.Printf("Primary task generation failed, using fallback: %v", err)
	return r.fallback.GenerateTasks(ctx, instruction, opts)
}

// GenerateDocument implements Generator.
func (r *Recovering) GenerateDocument(ctx context.Context, title, topic string) (string, error) {
	content, err := r.primary.GenerateDocument(ctx, title, topic)
	if err == nil {
		return content, nil
	}
	r.logger.Printf("Primary document generation failed, using fallback: %v", err)
	return r.fallback.GenerateDocument(ctx, title, topic)
}

// Summarize implements Generator.
func (r *Recovering) Summarize(ctx context.Context, userID string, tasks []*types.Task) (string, error) {
	summary, err := r.primary.Summarize(ctx, userID, tasks)
	if err == nil {
		return summary, nil
	}
	r.logger.Printf("Primary summary failed, using fallback: %v", err)
	return r.fallback.Summarize(ctx, userID, tasks)
}

var _ Generator = (*Recovering)(nil)
