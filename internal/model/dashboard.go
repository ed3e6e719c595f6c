package model

import "time"

// TaskStats holds the headline counters for the dashboard.
type TaskStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Overdue    int `json:"overdue"`
}

// PriorityStat is one group-by-priority bucket. Only priorities with at
// least one task are reported.
type PriorityStat struct {
	Priority string `json:"priority"`
	Count    int    `json:"count"`
}

// CategoryStat is one group-by-category bucket. The dashboard zero-fills
// these across its fixed category list.
type CategoryStat struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// DeadlineStat is an upcoming-deadline entry.
type DeadlineStat struct {
	ID    int64     `json:"id"`
	Title string    `json:"title"`
	DueAt time.Time `json:"due_at"`
}

// DashboardStats is the full dashboard payload.
type DashboardStats struct {
	Stats      TaskStats      `json:"stats"`
	Priorities []PriorityStat `json:"priorities"`
	Categories []CategoryStat `json:"categories"`
	Deadlines  []DeadlineStat `json:"deadlines"`
}
