package storage

import (
	"context"
	"errors"

	"task_manager/internal/models"

	"github.com/gofrs/uuid"
)

const (
	usersTable = "users"
	tasksTable = "tasks"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrTaskNotFound = errors.New("task not found")
)

type Storage interface {

	// Users
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetCredentialsByEmail(ctx context.Context, email string) (models.Credentials, error)

	// Tasks. Writes are always scoped by the owning user id.
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)
	GetTaskByID(ctx context.Context, taskID uuid.UUID) (models.Task, error)
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error)
	UpdateTask(ctx context.Context, task models.Task) (models.Task, error)
	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error

	Ping(ctx context.Context) error
	Close()
}
