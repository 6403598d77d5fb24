package models

import (
	"context"
	"database/sql"
	"time"
)

// ActionCard is a system-generated suggested action surfaced to the user.
type ActionCard struct {
	ID              string
	UserID          string
	Title           string
	Message         string
	Priority        string
	Category        sql.NullString
	ExpectedSavings sql.NullFloat64
	DaysUntilImpact sql.NullInt64
	IsUrgent        bool
	Status          string
	CreatedAt       time.Time
}

// GetPendingActionCards returns up to `limit` pending cards ordered by urgency,
// then priority, then recency.
func GetPendingActionCards(ctx context.Context, db *sql.DB, userID string, limit int) ([]ActionCard, error) {
	rows, err := db.QueryContext(ctx, `
	SELECT id, user_id, title, message, priority, category, expected_savings, days_until_impact, is_urgent, status, created_at
	FROM action_cards
	WHERE user_id = ? AND status = 'pending'
	ORDER BY is_urgent DESC, priority DESC, created_at DESC
	LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []ActionCard
	for rows.Next() {
		var c ActionCard
		err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Message, &c.Priority, &c.Category,
			&c.ExpectedSavings, &c.DaysUntilImpact, &c.IsUrgent, &c.Status, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}
