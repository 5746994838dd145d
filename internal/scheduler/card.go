package scheduler

import (
	"context"
	"time"

	"wordflash/internal/domain"

	"github.com/google/uuid"
)

// Presenter shows cards to the learner. Present must not block until the
// card is answered: the presenter later calls Card.Submit or Card.Dismiss.
type Presenter interface {
	Present(ctx context.Context, card *Card) error
}

// Card is one quiz handed to the presenter
type Card struct {
	ID         uuid.UUID
	Key        domain.TranslationEntryKey
	Assessment domain.AssessmentInfo
	ShownAt    time.Time

	scheduler *Scheduler
}

// Submit grades the learner's answer and closes the card
func (c *Card) Submit(ctx context.Context, text string) (domain.Verdict, error) {
	return c.scheduler.submit(ctx, c, text)
}

// Dismiss closes the card without grading it
func (c *Card) Dismiss(ctx context.Context) error {
	return c.scheduler.dismiss(ctx, c)
}
