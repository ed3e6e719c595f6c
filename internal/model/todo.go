package model

import "time"

// Priority levels accepted for a todo.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Categories accepted for a todo.
const (
	CategoryWork     = "work"
	CategoryPersonal = "personal"
	CategoryStudy    = "study"
	CategoryHome     = "home"
	CategoryHealth   = "health"
	CategoryShopping = "shopping"
	CategoryOthers   = "others"
)

// AllowedPriorities lists the valid priority values in display order.
var AllowedPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

// AllowedCategories lists the valid category values in display order.
var AllowedCategories = []string{
	CategoryWork, CategoryPersonal, CategoryStudy, CategoryHome,
	CategoryHealth, CategoryShopping, CategoryOthers,
}

// ValidPriority reports whether p is an accepted priority value.
func ValidPriority(p string) bool {
	for _, v := range AllowedPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// ValidCategory reports whether c is an accepted category value.
func ValidCategory(c string) bool {
	for _, v := range AllowedCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Todo represents a task row in the database. Every todo belongs to exactly
// one owner; all queries are scoped by OwnerID.
type Todo struct {
	ID          int64
	OwnerID     int64
	Title       string
	Description *string
	Completed   bool
	DueAt       *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Priority    string
	Category    string
}

// CreateTodoRequest represents a todo creation request. Priority and category
// default to low/others when empty.
type CreateTodoRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
}

// TodoPatch enumerates the optional fields of a partial update. Only non-nil
// fields are applied, preserving exclude-unset semantics.
type TodoPatch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	Completed   *bool      `json:"completed"`
	Priority    *string    `json:"priority"`
	Category    *string    `json:"category"`
}

// IsZero reports whether no field of the patch is set.
func (p TodoPatch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.DueAt == nil &&
		p.Completed == nil && p.Priority == nil && p.Category == nil
}

// TodoResponse represents a todo in API responses.
type TodoResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Completed   bool       `json:"completed"`
	DueAt       *time.Time `json:"due_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	OwnerID     int64      `json:"owner_id"`
}
