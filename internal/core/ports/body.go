package ports

import (
	"context"

	"go.trai.ch/blueshift/internal/core/domain"
)

// TaskBody computes a task's outputs from an input snapshot.
//
//go:generate mockgen -source=body.go -destination=mocks/mock_body.go -package=mocks
type TaskBody interface {
	// Run receives one value per task binding, in binding order, and returns a vector of the same length.
	Run(ctx context.Context, snapshot []domain.Value) ([]domain.Value, error)
}

// BodyFactory resolves the body implementation a task names.
type BodyFactory interface {
	// Body returns the body for task, validating its arguments against the task bindings.
	Body(task domain.Task) (TaskBody, error)
}
