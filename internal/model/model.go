package model

type User struct {
	ID                 int64  `json:"id"`
	Username           string `json:"username"`
	Email              string `json:"email"`
	IsAdmin            bool   `json:"is_admin"`
	DateJoined         *Time  `json:"date_joined,omitempty"`
	TaskCount          int    `json:"task_count,omitempty"`
	CompletedTaskCount int    `json:"completed_task_count,omitempty"`
}

// UserRef is the embedded owner reference on a task.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type Task struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	Priority    Priority     `json:"priority"`
	CategoryID  *int64       `json:"category_id"`
	Category    *CategoryRef `json:"category,omitempty"`
	DueDate     *Time        `json:"due_date"`
	Completed   bool         `json:"completed"`
	CompletedAt *Time        `json:"completed_at"`
	CreatedAt   Time         `json:"created_at"`
	UpdatedAt   Time         `json:"updated_at"`
	CreatedBy   *UserRef     `json:"created_by,omitempty"`
}

// CategoryRef is the category summary embedded in task payloads.
type CategoryRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	TaskCount int    `json:"task_count"`
}

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#007bff"

type ContactMessage struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt Time   `json:"created_at"`
}

type StatusCount struct {
	Status int    `json:"status"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type AdminStats struct {
	StatusDistribution []StatusCount `json:"status_distribution"`
	UserGrowth         []MonthCount  `json:"user_growth"`
}

// Status codes used by the backend's status distribution.
const (
	StatusActive     = 0
	StatusInProgress = 1
	StatusCompleted  = 2
)

// CountFor returns the count reported for a status code, 0 when absent.
func (s AdminStats) CountFor(status int) int {
	for _, sc := range s.StatusDistribution {
		if sc.Status == status {
			return sc.Count
		}
	}
	return 0
}
