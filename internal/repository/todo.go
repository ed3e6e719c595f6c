package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/nestlyflow/nestlyflow-go/internal/model"
)

var ErrTodoNotFound = errors.New("todo not found")

// TodoRepository handles todo persistence operations. Every query is scoped
// by the owner's user ID so rows of other users are indistinguishable from
// absent rows.
type TodoRepository struct {
	db *sql.DB
}

// NewTodoRepository creates a new TodoRepository.
func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

const todoColumns = `id, owner_id, title, description, completed, due_at, created_at, updated_at, priority, category`

func scanTodo(scan func(dest ...any) error) (model.Todo, error) {
	var t model.Todo
	err := scan(
		&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Completed,
		&t.DueAt, &t.CreatedAt, &t.UpdatedAt, &t.Priority, &t.Category,
	)
	return t, err
}

func (r *TodoRepository) queryTodos(ctx context.Context, query string, args ...any) ([]model.Todo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []model.Todo
	for rows.Next() {
		t, err := scanTodo(rows.Scan)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// Create inserts a new todo and sets the generated ID on the struct.
// Timestamps and defaults are expected to be filled in by the caller.
func (r *TodoRepository) Create(ctx context.Context, todo *model.Todo) error {
	query := `INSERT INTO todos
		(owner_id, title, description, completed, due_at, created_at, updated_at, priority, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		todo.OwnerID, todo.Title, todo.Description, todo.Completed,
		todo.DueAt, todo.CreatedAt, todo.UpdatedAt, todo.Priority, todo.Category,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	todo.ID = id
	return nil
}

// ListByOwner retrieves the owner's todos in insertion order. A limit of
// zero or less returns all rows from the offset onward.
func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]model.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE owner_id = ? ORDER BY id ASC`
	args := []any{ownerID}

	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	return r.queryTodos(ctx, query, args...)
}

// GetByID retrieves a todo by ID within the owner scope.
func (r *TodoRepository) GetByID(ctx context.Context, ownerID, id int64) (model.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = ? AND owner_id = ?`

	t, err := scanTodo(r.db.QueryRowContext(ctx, query, id, ownerID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Todo{}, ErrTodoNotFound
		}
		return model.Todo{}, err
	}
	return t, nil
}

// Update writes all mutable fields of the todo back within the owner scope.
func (r *TodoRepository) Update(ctx context.Context, todo *model.Todo) error {
	query := `UPDATE todos SET
		title = ?, description = ?, completed = ?, due_at = ?, updated_at = ?, priority = ?, category = ?
		WHERE id = ? AND owner_id = ?`

	_, err := r.db.ExecContext(ctx, query,
		todo.Title, todo.Description, todo.Completed, todo.DueAt,
		todo.UpdatedAt, todo.Priority, todo.Category,
		todo.ID, todo.OwnerID,
	)
	return err
}

// Delete removes a todo within the owner scope.
func (r *TodoRepository) Delete(ctx context.Context, ownerID, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM todos WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTodoNotFound
	}
	return nil
}

// FindByTitleFold retrieves the owner's todos whose title matches the given
// title under case-insensitive comparison. Zero, one or many rows may match.
func (r *TodoRepository) FindByTitleFold(ctx context.Context, ownerID int64, title string) ([]model.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos
		WHERE owner_id = ? AND LOWER(title) = LOWER(?) ORDER BY id ASC`
	return r.queryTodos(ctx, query, ownerID, title)
}

// TitleExistsFold reports whether the owner already has a todo with the
// given title under case-insensitive comparison.
func (r *TodoRepository) TitleExistsFold(ctx context.Context, ownerID int64, title string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM todos WHERE owner_id = ? AND LOWER(title) = LOWER(?)`,
		ownerID, title,
	).Scan(&count)
	return count > 0, err
}

// CountTotal returns the owner's total todo count.
func (r *TodoRepository) CountTotal(ctx context.Context, ownerID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM todos WHERE owner_id = ?`, ownerID).Scan(&count)
	return count, err
}

// CountCompleted returns the owner's completed todo count.
func (r *TodoRepository) CountCompleted(ctx context.Context, ownerID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM todos WHERE owner_id = ? AND completed = ?`,
		ownerID, true).Scan(&count)
	return count, err
}

// CountOverdue returns the count of incomplete todos whose due date is in
// the past relative to now.
func (r *TodoRepository) CountOverdue(ctx context.Context, ownerID int64, now time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM todos WHERE owner_id = ? AND completed = ? AND due_at < ?`,
		ownerID, false, now).Scan(&count)
	return count, err
}

// CountByPriority groups the owner's todos by priority. Only priorities
// with at least one todo appear.
func (r *TodoRepository) CountByPriority(ctx context.Context, ownerID int64) ([]model.PriorityStat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT priority, COUNT(*) FROM todos WHERE owner_id = ? GROUP BY priority`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.PriorityStat
	for rows.Next() {
		var s model.PriorityStat
		if err := rows.Scan(&s.Priority, &s.Count); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// CountByCategory groups the owner's todos by category. Only categories
// with at least one todo appear.
func (r *TodoRepository) CountByCategory(ctx context.Context, ownerID int64) ([]model.CategoryStat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM todos WHERE owner_id = ? GROUP BY category`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.CategoryStat
	for rows.Next() {
		var s model.CategoryStat
		if err := rows.Scan(&s.Category, &s.Count); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// UpcomingDeadlines retrieves incomplete todos with a due date in the
// future, soonest first, limited.
func (r *TodoRepository) UpcomingDeadlines(ctx context.Context, ownerID int64, now time.Time, limit int) ([]model.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos
		WHERE owner_id = ? AND completed = ? AND due_at IS NOT NULL AND due_at > ?
		ORDER BY due_at ASC LIMIT ?`
	return r.queryTodos(ctx, query, ownerID, false, now, limit)
}
