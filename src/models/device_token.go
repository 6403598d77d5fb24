package models

import (
	"database/sql"

	"github.com/google/uuid"
)

// DeviceToken is one push-notification registration. A user keeps at most one
// token per device type (1=iOS, 2=Android).
type DeviceToken struct {
	ID         string
	UserID     string
	Token      string
	DeviceType int
}

// ReplaceDeviceToken removes any existing registration for the (user, device
// type) pair and stores the new token.
func ReplaceDeviceToken(db *sql.DB, userID, token string, deviceType int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM device_tokens WHERE user_id = ? AND device_type = ?`, userID, deviceType); err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT INTO device_tokens (id, user_id, token, device_type) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), userID, token, deviceType)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteDeviceToken removes a specific token registration for the user.
func DeleteDeviceToken(db *sql.DB, userID, token string) error {
	_, err := db.Exec(`DELETE FROM device_tokens WHERE user_id = ? AND token = ?`, userID, token)
	return err
}

// GetDeviceTokens returns every registered device for the user.
func GetDeviceTokens(db *sql.DB, userID string) ([]DeviceToken, error) {
	rows, err := db.Query(`SELECT id, user_id, token, device_type FROM device_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []DeviceToken
	for rows.Next() {
		var t DeviceToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.DeviceType); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
