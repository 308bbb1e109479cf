package gormdb

import (
	"time"

	"gorm.io/datatypes"
)

type userModel struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	Role         string `gorm:"not null"`
	IsActive     bool   `gorm:"not null;default:true"`
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

type projectModel struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Description string
	TeamID      string
	Status      string
	StartDate   time.Time
	EndDate     time.Time
	CreatedBy   string
	CreatedAt   time.Time
}

func (projectModel) TableName() string { return "projects" }

type taskModel struct {
	ID             string `gorm:"primaryKey"`
	Title          string `gorm:"not null"`
	Description    string
	Status         string `gorm:"not null"`
	Priority       string
	AssigneeID     string
	ProjectID      string `gorm:"index;not null"`
	Domain         string
	EstimatedHours float64
	ActualHours    float64
	StartDate      time.Time
	DueDate        time.Time
	CompletedDate  *time.Time
	DelayReason    string
	Dependencies   []string `gorm:"serializer:json"`
	CreatedAt      time.Time
}

func (taskModel) TableName() string { return "tasks" }

type extensionModel struct {
	ID              string `gorm:"primaryKey"`
	TaskID          string `gorm:"not null"`
	ProjectID       string `gorm:"index;not null"`
	RequesterID     string `gorm:"index;not null"`
	AdditionalDays  int    `gorm:"not null"`
	Reason          string `gorm:"not null"`
	Status          string `gorm:"not null;default:pending"`
	ResponseMessage string
	ResponderID     string
	RespondedAt     *time.Time
	CreatedAt       time.Time
}

func (extensionModel) TableName() string { return "extension_requests" }

type rescheduleModel struct {
	ID              string `gorm:"primaryKey"`
	ProjectID       string `gorm:"index;not null"`
	OldDeadline     time.Time
	NewDeadline     time.Time
	Reason          string `gorm:"not null"`
	RescheduledByID string `gorm:"not null"`
	CreatedAt       time.Time
}

func (rescheduleModel) TableName() string { return "deadline_reschedule_logs" }

type reportModel struct {
	ID                    string `gorm:"primaryKey"`
	ProjectID             string `gorm:"index;not null"`
	WeekStartDate         time.Time
	WeekEndDate           time.Time
	ProjectDueDate        time.Time
	CurrentProjectEndDate time.Time
	Reschedules           datatypes.JSON
	DelayCount            int
	DelayDetails          datatypes.JSON
	GeneratedByID         string
	GeneratedAt           time.Time
}

func (reportModel) TableName() string { return "weekly_reports" }
