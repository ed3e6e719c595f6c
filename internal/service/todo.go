package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nestlyflow/nestlyflow-go/internal/model"
	"github.com/nestlyflow/nestlyflow-go/internal/repository"
)

const (
	maxTitleLength   = 255
	defaultListLimit = 100
)

var (
	ErrTodoNotFound    = errors.New("todo not found")
	ErrTitleRequired   = errors.New("title is required")
	ErrTitleTooLong    = errors.New("title must be at most 255 characters")
	ErrInvalidPriority = errors.New("priority must be one of: low, medium, high")
	ErrInvalidCategory = errors.New("category must be one of: work, personal, study, home, health, shopping, others")
)

// TodoService handles todo business logic: owner-scoped CRUD plus the title
// resolver that keeps titles unique per owner under case-insensitive
// comparison.
type TodoService struct {
	repo *repository.TodoRepository
}

// NewTodoService creates a new TodoService.
func NewTodoService(repo *repository.TodoRepository) *TodoService {
	return &TodoService{repo: repo}
}

// List returns the owner's todos in insertion order. A limit of zero or
// less means the default page size; negative skips are clamped to zero.
func (s *TodoService) List(ctx context.Context, ownerID int64, skip, limit int) ([]model.TodoResponse, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	todos, err := s.repo.ListByOwner(ctx, ownerID, skip, limit)
	if err != nil {
		return nil, err
	}
	return todosToResponse(todos), nil
}

// ListAll returns every todo the owner has, unpaginated.
func (s *TodoService) ListAll(ctx context.Context, ownerID int64) ([]model.TodoResponse, error) {
	todos, err := s.repo.ListByOwner(ctx, ownerID, 0, 0)
	if err != nil {
		return nil, err
	}
	return todosToResponse(todos), nil
}

// Create validates the request, resolves the title through the uniqueness
// suffixer and persists the todo with defaults applied.
func (s *TodoService) Create(ctx context.Context, ownerID int64, req model.CreateTodoRequest) (model.TodoResponse, error) {
	if req.Title == "" {
		return model.TodoResponse{}, ErrTitleRequired
	}
	if len(req.Title) > maxTitleLength {
		return model.TodoResponse{}, ErrTitleTooLong
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityLow
	}
	if !model.ValidPriority(priority) {
		return model.TodoResponse{}, ErrInvalidPriority
	}

	category := req.Category
	if category == "" {
		category = model.CategoryOthers
	}
	if !model.ValidCategory(category) {
		return model.TodoResponse{}, ErrInvalidCategory
	}

	title, err := s.allocateTitle(ctx, ownerID, req.Title)
	if err != nil {
		return model.TodoResponse{}, err
	}

	now := time.Now().UTC()
	todo := model.Todo{
		OwnerID:     ownerID,
		Title:       title,
		Description: req.Description,
		DueAt:       req.DueAt,
		CreatedAt:   now,
		UpdatedAt:   now,
		Priority:    priority,
		Category:    category,
	}

	if err := s.repo.Create(ctx, &todo); err != nil {
		return model.TodoResponse{}, err
	}
	return todoToResponse(todo), nil
}

// Get retrieves one todo within the owner scope.
func (s *TodoService) Get(ctx context.Context, ownerID, id int64) (model.TodoResponse, error) {
	todo, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return model.TodoResponse{}, ErrTodoNotFound
		}
		return model.TodoResponse{}, err
	}
	return todoToResponse(todo), nil
}

// Update applies the set fields of the patch to the todo and refreshes its
// updated timestamp. A title collision with another todo is detected but
// not blocked; creation is the only place titles are auto-suffixed.
func (s *TodoService) Update(ctx context.Context, ownerID, id int64, patch model.TodoPatch) (model.TodoResponse, error) {
	if patch.Title != nil {
		if *patch.Title == "" {
			return model.TodoResponse{}, ErrTitleRequired
		}
		if len(*patch.Title) > maxTitleLength {
			return model.TodoResponse{}, ErrTitleTooLong
		}
	}
	if patch.Priority != nil && !model.ValidPriority(*patch.Priority) {
		return model.TodoResponse{}, ErrInvalidPriority
	}
	if patch.Category != nil && !model.ValidCategory(*patch.Category) {
		return model.TodoResponse{}, ErrInvalidCategory
	}

	todo, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return model.TodoResponse{}, ErrTodoNotFound
		}
		return model.TodoResponse{}, err
	}

	if patch.Title != nil && !strings.EqualFold(*patch.Title, todo.Title) {
		exists, err := s.repo.TitleExistsFold(ctx, ownerID, *patch.Title)
		if err != nil {
			return model.TodoResponse{}, err
		}
		if exists {
			// Advisory only: renames may collide with an existing title.
			slog.Warn("todo rename collides with existing title",
				"owner_id", ownerID, "todo_id", id, "title", *patch.Title)
		}
	}

	if patch.Title != nil {
		todo.Title = *patch.Title
	}
	if patch.Description != nil {
		todo.Description = patch.Description
	}
	if patch.DueAt != nil {
		todo.DueAt = patch.DueAt
	}
	if patch.Completed != nil {
		todo.Completed = *patch.Completed
	}
	if patch.Priority != nil {
		todo.Priority = *patch.Priority
	}
	if patch.Category != nil {
		todo.Category = *patch.Category
	}
	todo.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, &todo); err != nil {
		return model.TodoResponse{}, err
	}
	return todoToResponse(todo), nil
}

// Delete removes one todo within the owner scope.
func (s *TodoService) Delete(ctx context.Context, ownerID, id int64) error {
	err := s.repo.Delete(ctx, ownerID, id)
	if errors.Is(err, repository.ErrTodoNotFound) {
		return ErrTodoNotFound
	}
	return err
}

// FindByTitle returns every todo of the owner whose title matches under
// case-insensitive comparison. The assistant uses this to resolve titles
// into targets and to detect ambiguity.
func (s *TodoService) FindByTitle(ctx context.Context, ownerID int64, title string) ([]model.Todo, error) {
	return s.repo.FindByTitleFold(ctx, ownerID, title)
}

// allocateTitle returns the requested title if no case-insensitive match
// exists for the owner; otherwise it appends " (N)" with N starting at 2,
// incrementing past taken suffixes until a free candidate is found.
func (s *TodoService) allocateTitle(ctx context.Context, ownerID int64, requested string) (string, error) {
	exists, err := s.repo.TitleExistsFold(ctx, ownerID, requested)
	if err != nil {
		return "", err
	}
	if !exists {
		return requested, nil
	}

	for counter := 2; ; counter++ {
		candidate := fmt.Sprintf("%s (%d)", requested, counter)
		exists, err := s.repo.TitleExistsFold(ctx, ownerID, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

func todoToResponse(t model.Todo) model.TodoResponse {
	return model.TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		DueAt:       t.DueAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Priority:    t.Priority,
		Category:    t.Category,
		OwnerID:     t.OwnerID,
	}
}

func todosToResponse(todos []model.Todo) []model.TodoResponse {
	result := make([]model.TodoResponse, len(todos))
	for i, t := range todos {
		result[i] = todoToResponse(t)
	}
	return result
}
