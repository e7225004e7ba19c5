package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"task_manager/internal/models"

	"github.com/gofrs/uuid"
)

// MemoryStorage keeps users and tasks in maps. It backs the "memory" driver
// and the service and handler tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]models.User
	byEmail map[string]uuid.UUID
	tasks   map[uuid.UUID]models.Task
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:   make(map[uuid.UUID]models.User),
		byEmail: make(map[string]uuid.UUID),
		tasks:   make(map[uuid.UUID]models.Task),
	}
}

func (m *MemoryStorage) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const op = "storage.memory.CreateUser"

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[user.Email]; ok {
		return models.User{}, fmt.Errorf("%s: %w", op, ErrUserExists)
	}

	m.users[user.ID] = user
	m.byEmail[user.Email] = user.ID

	return user, nil
}

func (m *MemoryStorage) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	const op = "storage.memory.GetUserByID"

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return models.User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	return user, nil
}

func (m *MemoryStorage) GetCredentialsByEmail(ctx context.Context, email string) (models.Credentials, error) {
	const op = "storage.memory.GetCredentialsByEmail"

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return models.Credentials{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	return models.Credentials{UserID: id, PasswordHash: m.users[id].PasswordHash}, nil
}

func (m *MemoryStorage) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tasks[task.ID] = task

	return task, nil
}

func (m *MemoryStorage) GetTaskByID(ctx context.Context, taskID uuid.UUID) (models.Task, error) {
	const op = "storage.memory.GetTaskByID"

	m.mu.RLock()
	defer m.mu.RUnlock()

	task, ok := m.tasks[taskID]
	if !ok {
		return models.Task{}, fmt.Errorf("%s: %w", op, ErrTaskNotFound)
	}

	return task, nil
}

func (m *MemoryStorage) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(filter.Search)

	matched := make([]models.Task, 0)
	for _, task := range m.tasks {
		if task.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(task.Title), search) {
			continue
		}
		matched = append(matched, task)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() > matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)

	start := min(max(filter.Offset, 0), total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}

	return matched[start:end], total, nil
}

func (m *MemoryStorage) UpdateTask(ctx context.Context, task models.Task) (models.Task, error) {
	const op = "storage.memory.UpdateTask"

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return models.Task{}, fmt.Errorf("%s: %w", op, ErrTaskNotFound)
	}

	// ownership and creation time never change
	task.CreatedAt = existing.CreatedAt
	m.tasks[task.ID] = task

	return task, nil
}

func (m *MemoryStorage) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	const op = "storage.memory.DeleteTask"

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.tasks[taskID]
	if !ok || existing.UserID != userID {
		return fmt.Errorf("%s: %w", op, ErrTaskNotFound)
	}

	delete(m.tasks, taskID)

	return nil
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStorage) Close() {}
