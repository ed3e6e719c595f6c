package service

import (
	"context"
	"time"

	"github.com/nestlyflow/nestlyflow-go/internal/model"
	"github.com/nestlyflow/nestlyflow-go/internal/repository"
)

const deadlineLimit = 5

// dashboardCategories is the fixed category list the dashboard reports,
// zero-filled. It intentionally differs from the category enum accepted on
// todos (education here, study/home there) to match the frontend contract.
var dashboardCategories = []string{"work", "personal", "shopping", "health", "education", "others"}

// DashboardService aggregates a user's todos into dashboard statistics.
type DashboardService struct {
	repo *repository.TodoRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo *repository.TodoRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// Build computes the full dashboard payload for the owner: headline counts,
// per-priority buckets (present only), the zero-filled fixed category list
// and the next upcoming deadlines.
func (s *DashboardService) Build(ctx context.Context, ownerID int64) (model.DashboardStats, error) {
	now := time.Now().UTC()

	total, err := s.repo.CountTotal(ctx, ownerID)
	if err != nil {
		return model.DashboardStats{}, err
	}
	completed, err := s.repo.CountCompleted(ctx, ownerID)
	if err != nil {
		return model.DashboardStats{}, err
	}
	overdue, err := s.repo.CountOverdue(ctx, ownerID, now)
	if err != nil {
		return model.DashboardStats{}, err
	}

	priorities, err := s.repo.CountByPriority(ctx, ownerID)
	if err != nil {
		return model.DashboardStats{}, err
	}
	if priorities == nil {
		priorities = []model.PriorityStat{}
	}

	byCategory, err := s.repo.CountByCategory(ctx, ownerID)
	if err != nil {
		return model.DashboardStats{}, err
	}
	counts := make(map[string]int, len(byCategory))
	for _, c := range byCategory {
		counts[c.Category] = c.Count
	}
	categories := make([]model.CategoryStat, 0, len(dashboardCategories))
	for _, name := range dashboardCategories {
		categories = append(categories, model.CategoryStat{Category: name, Count: counts[name]})
	}

	upcoming, err := s.repo.UpcomingDeadlines(ctx, ownerID, now, deadlineLimit)
	if err != nil {
		return model.DashboardStats{}, err
	}
	deadlines := make([]model.DeadlineStat, 0, len(upcoming))
	for _, t := range upcoming {
		deadlines = append(deadlines, model.DeadlineStat{ID: t.ID, Title: t.Title, DueAt: *t.DueAt})
	}

	return model.DashboardStats{
		Stats: model.TaskStats{
			Total:      total,
			Completed:  completed,
			InProgress: total - completed,
			Overdue:    overdue,
		},
		Priorities: priorities,
		Categories: categories,
		Deadlines:  deadlines,
	}, nil
}
