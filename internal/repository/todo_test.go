package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nestlyflow/nestlyflow-go/internal/model"
	"github.com/nestlyflow/nestlyflow-go/internal/repository/repositorytest"
)

// seedOwner inserts a user and returns its ID so todos have a real owner.
func seedOwner(t *testing.T, users *UserRepository, name string) int64 {
	t.Helper()
	user := newTestUser(name, name+"@example.com")
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("seeding owner %q: %v", name, err)
	}
	return user.ID
}

func seedTodo(t *testing.T, repo *TodoRepository, ownerID int64, title string, mutate func(*model.Todo)) model.Todo {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	todo := model.Todo{
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Priority:  model.PriorityLow,
		Category:  model.CategoryOthers,
	}
	if mutate != nil {
		mutate(&todo)
	}
	if err := repo.Create(context.Background(), &todo); err != nil {
		t.Fatalf("seeding todo %q: %v", title, err)
	}
	return todo
}

func TestTodoCreateAndGet(t *testing.T) {
	db := repositorytest.NewDB(t)
	users := NewUserRepository(db)
	repo := NewTodoRepository(db)
	ctx := context.Background()

	ownerID := seedOwner(t, users, "alice")
	desc := "2 liters"
	due := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	created := seedTodo(t, repo, ownerID, "Buy milk", func(td *model.Todo) {
		td.Description = &desc
		td.DueAt = &due
		td.Priority = model.PriorityHigh
		td.Category = model.CategoryShopping
	})

	got, err := repo.GetByID(ctx, ownerID, created.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if got.Title != "Buy milk" {
		t.Errorf("Title = %q, want %q", got.Title, "Buy milk")
	}
	if got.Description == nil || *got.Description != desc {
		t.Errorf("Description = %v, want %q", got.Description, desc)
	}
	if got.DueAt == nil || !got.DueAt.Equal(due) {
		t.Errorf("DueAt = %v, want %v", got.DueAt, due)
	}
	if got.Priority != model.PriorityHigh || got.Category != model.CategoryShopping {
		t.Errorf("Priority/Category = %q/%q, want high/shopping", got.Priority, got.Category)
	}
}

func TestTodoGetByIDOwnerScope(t *testing.T) {
	db := repositorytest.NewDB(t)
	users := NewUserRepository(db)
	repo := NewTodoRepository(db)
	ctx := context.Background()

	alice := seedOwner(t, users, "alice")
	bob := seedOwner(t, users, "bob")
	todo := seedTodo(t, repo, alice, "Buy milk", nil)

	if _, err := repo.GetByID(ctx, bob, todo.ID); !errors.Is(err, ErrTodoNotFound) {
		t.Errorf("GetByID(other owner) error = %v, want ErrTodoNotFound", err)
	}
	if err := repo.Delete(ctx, bob, todo.ID); !errors.Is(err, ErrTodoNotFound) {
		t.Errorf("Delete(other owner) error = %v, want ErrTodoNotFound", err)
	}

	// The row is still there for its owner.
	if _, err := repo.GetByID(ctx, alice, todo.ID); err != nil {
		t.Errorf("GetByID(owner) unexpected error: %v", err)
	}
}

func TestTodoListByOwnerPagination(t *testing.T) {
	db := repositorytest.NewDB(t)
	users := NewUserRepository(db)
	repo := NewTodoRepository(db)
	ctx := context.Background()

	ownerID := seedOwner(t, users, "alice")
	for i := 1; i <= 5; i++ {
		seedTodo(t, repo, ownerID, fmt.Sprintf("task %d", i), nil)
	}

	all, err := repo.ListByOwner(ctx, ownerID, 0, 0)
	if err != nil {
		t.Fatalf("ListByOwner() unexpected error: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("ListByOwner() returned %d todos, want 5", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].ID <= all[i-1].ID {
			t.Fatalf("ListByOwner() not ordered by id: %d after %d", all[i].ID, all[i-1].ID)
		}
	}

	page, err := repo.ListByOwner(ctx, ownerID, 2, 2)
	if err != nil {
		t.Fatalf("ListByOwner(offset 2, limit 2) unexpected error: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("ListByOwner(offset 2, limit 2) returned %d todos, want 2", len(page))
	}
	if page[0].Title != "task 3" || page[1].Title != "task 4" {
		t.Errorf("page titles = %q, %q, want task 3, task 4", page[0].Title, page[1].Title)
	}
}

func TestTodoUpdate(t *testing.T) {
	db := repositorytest.NewDB(t)
	users := NewUserRepository(db)
	repo := NewTodoRepository(db)
	ctx := context.Background()

	ownerID := seedOwner(t, users, "alice")
	todo := seedTodo(t, repo, ownerID, "Buy milk", nil)

	todo.Title = "Buy oat milk"
	todo.Completed = true
	todo.Priority = model.PriorityMedium
	todo.UpdatedAt = todo.UpdatedAt.Add(time.Minute)
	if err := repo.Update(ctx, &todo); err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}

	got, err := repo.GetByID(ctx, ownerID, todo.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if got.Title != "Buy oat milk" || !got.Completed || got.Priority != model.PriorityMedium {
		t.Errorf("after update got %+v", got)
	}
}

func TestTodoDelete(t *testing.T) {
	db := repositorytest.NewDB(t)
	users := NewUserRepository(db)
	repo := NewTodoRepository(db)
	ctx := context.Background()

	ownerID := seedOwner(t, users, "alice")
	todo := seedTodo(t, repo, ownerID, "Buy milk", nil)

	if err := repo.Delete(ctx, ownerID, todo.ID); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if err := repo.Delete(ctx, ownerID, todo.ID); !errors.Is(err, ErrTodoNotFound) {
		t.Errorf("Delete(again) error = %v, want ErrTodoNotFound", err)
	}
}

func TestTodoFindByTitleFold(t *testing.T) {
	db := repositorytest.NewDB(t)
	users := NewUserRepository(db)
	repo := NewTodoRepository(db)
	ctx := context.Background()

	alice := seedOwner(t, users, "alice")
	bob := seedOwner(t, users, "bob")
	seedTodo(t, repo, alice, "Buy milk", nil)
	seedTodo(t, repo, alice, "BUY MILK", nil)
	seedTodo(t, repo, bob, "buy milk", nil)

	matches, err := repo.FindByTitleFold(ctx, alice, "buy MILK")
	if err != nil {
		t.Fatalf("FindByTitleFold() unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("FindByTitleFold() returned %d todos, want 2 (owner-scoped)", len(matches))
	}

	exists, err := repo.TitleExistsFold(ctx, alice, "Buy Milk")
	if err != nil {
		t.Fatalf("TitleExistsFold() unexpected error: %v", err)
	}
	if !exists {
		t.Error("TitleExistsFold() = false, want true")
	}

	exists, err = repo.TitleExistsFold(ctx, alice, "walk dog")
	if err != nil {
		t.Fatalf("TitleExistsFold() unexpected error: %v", err)
	}
	if exists {
		t.Error("TitleExistsFold(absent) = true, want false")
	}
}

func TestTodoCounts(t *testing.T) {
	db := repositorytest.NewDB(t)
	users := NewUserRepository(db)
	repo := NewTodoRepository(db)
	ctx := context.Background()

	ownerID := seedOwner(t, users, "alice")
	now := time.Now().UTC().Truncate(time.Second)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	seedTodo(t, repo, ownerID, "done", func(td *model.Todo) { td.Completed = true })
	seedTodo(t, repo, ownerID, "overdue", func(td *model.Todo) { td.DueAt = &past })
	seedTodo(t, repo, ownerID, "upcoming", func(td *model.Todo) { td.DueAt = &future })
	seedTodo(t, repo, ownerID, "no due date", nil)
	// Completed and past due counts as done, not overdue.
	seedTodo(t, repo, ownerID, "done late", func(td *model.Todo) {
		td.Completed = true
		td.DueAt = &past
	})

	total, err := repo.CountTotal(ctx, ownerID)
	if err != nil {
		t.Fatalf("CountTotal() unexpected error: %v", err)
	}
	if total != 5 {
		t.Errorf("CountTotal() = %d, want 5", total)
	}

	completed, err := repo.CountCompleted(ctx, ownerID)
	if err != nil {
		t.Fatalf("CountCompleted() unexpected error: %v", err)
	}
	if completed != 2 {
		t.Errorf("CountCompleted() = %d, want 2", completed)
	}

	overdue, err := repo.CountOverdue(ctx, ownerID, now)
	if err != nil {
		t.Fatalf("CountOverdue() unexpected error: %v", err)
	}
	if overdue != 1 {
		t.Errorf("CountOverdue() = %d, want 1", overdue)
	}
}

func TestTodoCountByPriorityAndCategory(t *testing.T) {
	db := repositorytest.NewDB(t)
	users := NewUserRepository(db)
	repo := NewTodoRepository(db)
	ctx := context.Background()

	ownerID := seedOwner(t, users, "alice")
	seedTodo(t, repo, ownerID, "a", func(td *model.Todo) { td.Priority = model.PriorityHigh })
	seedTodo(t, repo, ownerID, "b", func(td *model.Todo) { td.Priority = model.PriorityHigh })
	seedTodo(t, repo, ownerID, "c", func(td *model.Todo) {
		td.Priority = model.PriorityLow
		td.Category = model.CategoryWork
	})

	priorities, err := repo.CountByPriority(ctx, ownerID)
	if err != nil {
		t.Fatalf("CountByPriority() unexpected error: %v", err)
	}
	byPriority := map[string]int{}
	for _, s := range priorities {
		byPriority[s.Priority] = s.Count
	}
	if byPriority[model.PriorityHigh] != 2 || byPriority[model.PriorityLow] != 1 {
		t.Errorf("CountByPriority() = %v, want high:2 low:1", byPriority)
	}
	if _, ok := byPriority[model.PriorityMedium]; ok {
		t.Error("CountByPriority() includes medium with zero todos")
	}

	categories, err := repo.CountByCategory(ctx, ownerID)
	if err != nil {
		t.Fatalf("CountByCategory() unexpected error: %v", err)
	}
	byCategory := map[string]int{}
	for _, s := range categories {
		byCategory[s.Category] = s.Count
	}
	if byCategory[model.CategoryWork] != 1 || byCategory[model.CategoryOthers] != 2 {
		t.Errorf("CountByCategory() = %v, want work:1 others:2", byCategory)
	}
}

func TestTodoUpcomingDeadlines(t *testing.T) {
	db := repositorytest.NewDB(t)
	users := NewUserRepository(db)
	repo := NewTodoRepository(db)
	ctx := context.Background()

	ownerID := seedOwner(t, users, "alice")
	now := time.Now().UTC().Truncate(time.Second)

	in3 := now.Add(3 * 24 * time.Hour)
	in1 := now.Add(24 * time.Hour)
	in2 := now.Add(2 * 24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	seedTodo(t, repo, ownerID, "third", func(td *model.Todo) { td.DueAt = &in3 })
	seedTodo(t, repo, ownerID, "first", func(td *model.Todo) { td.DueAt = &in1 })
	seedTodo(t, repo, ownerID, "second", func(td *model.Todo) { td.DueAt = &in2 })
	seedTodo(t, repo, ownerID, "overdue", func(td *model.Todo) { td.DueAt = &past })
	seedTodo(t, repo, ownerID, "completed", func(td *model.Todo) {
		td.DueAt = &in1
		td.Completed = true
	})
	seedTodo(t, repo, ownerID, "undated", nil)

	deadlines, err := repo.UpcomingDeadlines(ctx, ownerID, now, 2)
	if err != nil {
		t.Fatalf("UpcomingDeadlines() unexpected error: %v", err)
	}
	if len(deadlines) != 2 {
		t.Fatalf("UpcomingDeadlines() returned %d todos, want 2", len(deadlines))
	}
	if deadlines[0].Title != "first" || deadlines[1].Title != "second" {
		t.Errorf("UpcomingDeadlines() order = %q, %q, want first, second",
			deadlines[0].Title, deadlines[1].Title)
	}
}
