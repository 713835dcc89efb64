package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job asks the pipeline to (re)process one document.
type Job struct {
	DocumentID  uuid.UUID
	Force       bool // reprocess even if already processed
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
