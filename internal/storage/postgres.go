package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"task_manager/internal/models"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const uniqueViolation = "23505"

const taskColumns = "id, user_id, title, description, status, priority, due_date, created_at"

// pgxPool is the subset of *pgxpool.Pool the store uses.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

type PostgresStorage struct {
	db pgxPool
}

func NewPostgresStorage(ctx context.Context, DbURL string) (*PostgresStorage, error) {
	const op = "storage.NewPostgresStorage"

	conn, err := pgxpool.Connect(ctx, DbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return newPostgresStorage(conn), nil
}

func newPostgresStorage(db pgxPool) *PostgresStorage {
	return &PostgresStorage{
		db: db,
	}
}

func (p *PostgresStorage) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const op = "storage.CreateUser"

	query := fmt.Sprintf(`INSERT INTO %s(id, username, email, password_hash, created_at)
	VALUES ($1, $2, $3, $4, $5);`, usersTable)

	_, err := p.db.Exec(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, fmt.Errorf("%s: %w", op, ErrUserExists)
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (p *PostgresStorage) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	const op = "storage.GetUserByID"

	var user models.User
	query := fmt.Sprintf("SELECT id, username, email, created_at FROM %s WHERE id=$1;", usersTable)

	err := p.db.QueryRow(ctx, query, userID).Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return user, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (p *PostgresStorage) GetCredentialsByEmail(ctx context.Context, email string) (models.Credentials, error) {
	const op = "storage.GetCredentialsByEmail"

	var cred models.Credentials
	query := fmt.Sprintf("SELECT id, password_hash FROM %s WHERE email=$1", usersTable)

	err := p.db.QueryRow(ctx, query, email).Scan(&cred.UserID, &cred.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cred, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return cred, fmt.Errorf("%s: %w", op, err)
	}

	return cred, nil
}

func (p *PostgresStorage) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	const op = "storage.CreateTask"

	query := fmt.Sprintf(`INSERT INTO %s(%s)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`, tasksTable, taskColumns)

	_, err := p.db.Exec(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.DueDate,
		task.CreatedAt,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	return task, nil
}

func (p *PostgresStorage) GetTaskByID(ctx context.Context, taskID uuid.UUID) (models.Task, error) {
	const op = "storage.GetTaskByID"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id=$1;", taskColumns, tasksTable)

	task, err := scanTask(p.db.QueryRow(ctx, query, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task, fmt.Errorf("%s: %w", op, ErrTaskNotFound)
		}

		return task, fmt.Errorf("%s: %w", op, err)
	}

	return task, nil
}

func (p *PostgresStorage) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	const op = "storage.ListTasks"

	where, args := buildTaskWhere(filter)

	var total int
	countQuery := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s;", tasksTable, where)
	if err := p.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s (count): %w", op, err)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s
	ORDER BY created_at DESC, id DESC
	LIMIT $%d OFFSET $%d;`, taskColumns, tasksTable, where, len(args)+1, len(args)+2)

	rows, err := p.db.Query(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0, filter.Limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}

		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s (rows): %w", op, err)
	}

	return tasks, total, nil
}

func (p *PostgresStorage) UpdateTask(ctx context.Context, task models.Task) (models.Task, error) {
	const op = "storage.UpdateTask"

	query := fmt.Sprintf(`UPDATE %s
	SET title=$3, description=$4, status=$5, priority=$6, due_date=$7
	WHERE id=$1 AND user_id=$2
	RETURNING %s;`, tasksTable, taskColumns)

	updated, err := scanTask(p.db.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.DueDate,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, fmt.Errorf("%s: %w", op, ErrTaskNotFound)
		}

		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

func (p *PostgresStorage) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	const op = "storage.DeleteTask"

	query := fmt.Sprintf("DELETE FROM %s WHERE id=$1 AND user_id=$2", tasksTable)

	tag, err := p.db.Exec(ctx, query, taskID, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, ErrTaskNotFound)
	}

	return nil
}

func (p *PostgresStorage) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func (p *PostgresStorage) Close() {
	p.db.Close()
}

// buildTaskWhere renders the owner, status and title filters as a WHERE
// clause with positional arguments.
func buildTaskWhere(filter models.TaskFilter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{filter.UserID}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", len(args)))
	}

	return strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanTask(row pgx.Row) (models.Task, error) {
	var (
		task     models.Task
		status   string
		priority string
	)

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&task.DueDate,
		&task.CreatedAt,
	)
	if err != nil {
		return models.Task{}, err
	}

	task.Status = models.Status(status)
	task.Priority = models.Priority(priority)

	return task, nil
}
