package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"task_manager/internal/models"
	"task_manager/internal/storage"

	"github.com/gofrs/uuid"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 2000
	dateOnlyLayout    = "2006-01-02"
)

// ListQuery is a raw list request. Zero Page or Limit selects the defaults.
type ListQuery struct {
	Page   int
	Limit  int
	Status string
	Search string
}

type TaskInput struct {
	Title       string
	Description *string
	Status      string
	Priority    string
	DueDate     *string
}

// TaskPatch carries only the fields a partial update overwrites.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *string
}

func (s *Service) ListTasks(ctx context.Context, userID uuid.UUID, q ListQuery) (models.TaskPage, error) {
	const op = "service.ListTasks"

	page, limit := s.pageBounds(q.Page, q.Limit)

	filter := models.TaskFilter{
		UserID: userID,
		Search: q.Search,
		Offset: (page - 1) * limit,
		Limit:  limit,
	}
	if q.Status != "" {
		status := models.NormalizeStatus(q.Status)
		filter.Status = &status
	}

	tasks, total, err := s.storage.ListTasks(ctx, filter)
	if err != nil {
		return models.TaskPage{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.TaskPage{
		Tasks: tasks,
		Total: total,
		Page:  page,
		Pages: (total + limit - 1) / limit,
	}, nil
}

func (s *Service) GetTask(ctx context.Context, userID, taskID uuid.UUID) (models.Task, error) {
	return s.guard.Authorize(ctx, userID, taskID)
}

func (s *Service) CreateTask(ctx context.Context, userID uuid.UUID, in TaskInput) (models.Task, error) {
	const op = "service.CreateTask"

	verr := &ValidationError{}

	title := strings.TrimSpace(in.Title)
	checkTitle(verr, title)
	description := cleanDescription(verr, in.Description)
	dueDate := parseDueDate(verr, in.DueDate)

	if err := verr.errOrNil(); err != nil {
		return models.Task{}, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	task, err := s.storage.CreateTask(ctx, models.Task{
		ID:          id,
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      models.NormalizeStatus(in.Status),
		Priority:    models.NormalizePriority(in.Priority),
		DueDate:     dueDate,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	return task, nil
}

func (s *Service) UpdateTask(ctx context.Context, userID, taskID uuid.UUID, patch TaskPatch) (models.Task, error) {
	const op = "service.UpdateTask"

	verr := &ValidationError{}

	var title string
	if patch.Title != nil {
		title = strings.TrimSpace(*patch.Title)
		checkTitle(verr, title)
	}
	description := cleanDescription(verr, patch.Description)
	dueDate := parseDueDate(verr, patch.DueDate)

	if err := verr.errOrNil(); err != nil {
		return models.Task{}, err
	}

	task, err := s.guard.Authorize(ctx, userID, taskID)
	if err != nil {
		return models.Task{}, err
	}

	if patch.Title != nil {
		task.Title = title
	}
	if patch.Description != nil {
		task.Description = description
	}
	if patch.Status != nil && *patch.Status != "" {
		task.Status = models.NormalizeStatus(*patch.Status)
	}
	if patch.Priority != nil && *patch.Priority != "" {
		task.Priority = models.NormalizePriority(*patch.Priority)
	}
	if dueDate != nil {
		task.DueDate = dueDate
	}

	return s.saveTask(ctx, op, task)
}

func (s *Service) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	const op = "service.DeleteTask"

	if _, err := s.guard.Authorize(ctx, userID, taskID); err != nil {
		return err
	}

	if err := s.storage.DeleteTask(ctx, userID, taskID); err != nil {
		if errors.Is(err, storage.ErrTaskNotFound) {
			return ErrTaskNotFound
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ToggleTask moves a completed task back to todo and any other task to completed.
func (s *Service) ToggleTask(ctx context.Context, userID, taskID uuid.UUID) (models.Task, error) {
	const op = "service.ToggleTask"

	task, err := s.guard.Authorize(ctx, userID, taskID)
	if err != nil {
		return models.Task{}, err
	}

	task.Status = task.Status.Toggled()

	return s.saveTask(ctx, op, task)
}

func (s *Service) saveTask(ctx context.Context, op string, task models.Task) (models.Task, error) {
	updated, err := s.storage.UpdateTask(ctx, task)
	if err != nil {
		// deleted between the ownership check and the write
		if errors.Is(err, storage.ErrTaskNotFound) {
			return models.Task{}, ErrTaskNotFound
		}

		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

func (s *Service) pageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}

	if limit < 1 {
		limit = s.pagination.DefaultLimit
	}
	if limit > s.pagination.MaxLimit {
		limit = s.pagination.MaxLimit
	}

	// keeps (page-1)*limit from overflowing into a negative offset
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}

	return page, limit
}

func checkTitle(verr *ValidationError, title string) {
	switch {
	case title == "":
		verr.add("title", "Title is required")
	case utf8.RuneCountInString(title) > maxTitleLen:
		verr.add("title", fmt.Sprintf("Title must be at most %d characters", maxTitleLen))
	}
}

// cleanDescription maps an empty description to nil.
func cleanDescription(verr *ValidationError, description *string) *string {
	if description == nil {
		return nil
	}

	if utf8.RuneCountInString(*description) > maxDescriptionLen {
		verr.add("description", fmt.Sprintf("Description must be at most %d characters", maxDescriptionLen))
		return nil
	}

	if strings.TrimSpace(*description) == "" {
		return nil
	}

	d := *description
	return &d
}

// parseDueDate accepts RFC 3339 timestamps and plain dates. Nil and empty
// strings mean no due date.
func parseDueDate(verr *ValidationError, raw *string) *time.Time {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}

	value := strings.TrimSpace(*raw)
	for _, layout := range []string{time.RFC3339Nano, dateOnlyLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}

	verr.add("dueDate", "Due date must be an RFC 3339 timestamp or YYYY-MM-DD")

	return nil
}
