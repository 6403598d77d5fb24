package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Goal is a savings goal created from the app.
type Goal struct {
	ID              string
	UserID          string
	GoalName        string
	GoalAmount      float64
	TargetMode      string // BY_DATE | BY_TENURE | OPEN
	TargetDate      sql.NullTime
	TenureDays      sql.NullInt64
	TenureMonths    sql.NullInt64
	Priority        sql.NullString
	PurposeCategory sql.NullString
	Notes           sql.NullString
	CreatedAt       time.Time
}

func (g *Goal) CreateGoal(db *sql.DB) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	g.CreatedAt = time.Now()

	query := `
	INSERT INTO goals (id, user_id, goal_name, goal_amount, target_mode, target_date, tenure_days, tenure_months, priority, purpose_category, notes, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.Exec(query,
		g.ID,
		g.UserID,
		g.GoalName,
		g.GoalAmount,
		g.TargetMode,
		g.TargetDate,
		g.TenureDays,
		g.TenureMonths,
		g.Priority,
		g.PurposeCategory,
		g.Notes,
		g.CreatedAt,
	)
	return err
}
