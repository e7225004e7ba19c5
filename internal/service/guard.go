package service

import (
	"context"
	"errors"
	"fmt"

	"task_manager/internal/models"
	"task_manager/internal/storage"

	"github.com/gofrs/uuid"
)

type TaskLoader interface {
	GetTaskByID(ctx context.Context, taskID uuid.UUID) (models.Task, error)
}

// OwnershipGuard loads a task and admits only its owner. A missing task is
// ErrTaskNotFound and someone else's task is ErrForbidden, so a non-owner can
// tell that the id exists.
type OwnershipGuard struct {
	tasks TaskLoader
}

func NewOwnershipGuard(tasks TaskLoader) *OwnershipGuard {
	return &OwnershipGuard{tasks: tasks}
}

func (g *OwnershipGuard) Authorize(ctx context.Context, userID, taskID uuid.UUID) (models.Task, error) {
	const op = "service.OwnershipGuard.Authorize"

	task, err := g.tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, storage.ErrTaskNotFound) {
			return models.Task{}, ErrTaskNotFound
		}

		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	if task.UserID != userID {
		return models.Task{}, ErrForbidden
	}

	return task, nil
}
