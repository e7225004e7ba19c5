package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type Credentials struct {
	UserID       uuid.UUID
	PasswordHash string // bcrypt hash
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"userId"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// TaskFilter selects one page of a single owner's tasks.
type TaskFilter struct {
	UserID uuid.UUID
	Status *Status
	Search string
	Offset int
	Limit  int
}

type TaskPage struct {
	Tasks []Task `json:"tasks"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Pages int    `json:"pages"`
}
