package models

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// AAConsent mirrors the consent record created at the Account Aggregator
// partner (Setu). Its lifecycle (PENDING/ACTIVE/EXPIRED/REVOKED) is owned by
// the partner; we only persist what the partner returned.
type AAConsent struct {
	ID             string    `json:"id"`
	UserID         string    `json:"-"`
	ConsentID      string    `json:"consentId"`
	Status         string    `json:"status"`
	ConsentMode    string    `json:"-"`
	FetchType      string    `json:"-"`
	PAN            string    `json:"pan"`
	PurposeCode    string    `json:"-"`
	URL            string    `json:"url"`
	Vua            string    `json:"-"`
	ConsentStart   string    `json:"consentStart"`
	ConsentExpiry  string    `json:"consentExpiry"`
	ConsentTypes   []string  `json:"-"`
	DataLifeUnit   string    `json:"-"`
	DataLifeValue  int       `json:"-"`
	DataRangeFrom  string    `json:"-"`
	DataRangeTo    string    `json:"-"`
	FiTypes        []string  `json:"-"`
	FrequencyUnit  string    `json:"-"`
	FrequencyValue int       `json:"-"`
	Tags           []string  `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (c *AAConsent) CreateConsent(db *sql.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	consentTypes, _ := json.Marshal(c.ConsentTypes)
	fiTypes, _ := json.Marshal(c.FiTypes)
	tags, _ := json.Marshal(c.Tags)

	query := `
	INSERT INTO aa_consents (id, user_id, consent_id, status, consent_mode, fetch_type, pan, purpose_code, url, vua,
	                         consent_start, consent_expiry, consent_types, data_life_unit, data_life_value,
	                         data_range_from, data_range_to, fi_types, frequency_unit, frequency_value, tags,
	                         created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.Exec(query,
		c.ID, c.UserID, c.ConsentID, c.Status, c.ConsentMode, c.FetchType, c.PAN, c.PurposeCode, c.URL, c.Vua,
		c.ConsentStart, c.ConsentExpiry, string(consentTypes), c.DataLifeUnit, c.DataLifeValue,
		c.DataRangeFrom, c.DataRangeTo, string(fiTypes), c.FrequencyUnit, c.FrequencyValue, string(tags),
		c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// GetLatestConsent returns the user's most recent consent record, or nil when
// none exists.
func GetLatestConsent(db *sql.DB, userID string) (*AAConsent, error) {
	row := db.QueryRow(`
	SELECT id, consent_id, status, consent_start, consent_expiry, created_at, updated_at, pan, url
	FROM aa_consents
	WHERE user_id = ?
	ORDER BY created_at DESC
	LIMIT 1`, userID)

	var c AAConsent
	var status, start, expiry, pan, url sql.NullString
	err := row.Scan(&c.ID, &c.ConsentID, &status, &start, &expiry, &c.CreatedAt, &c.UpdatedAt, &pan, &url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Status = status.String
	c.ConsentStart = start.String
	c.ConsentExpiry = expiry.String
	c.PAN = pan.String
	c.URL = url.String
	return &c, nil
}

// SetuAccessToken is the single stored partner API token. At most one row
// exists; refreshing replaces it.
type SetuAccessToken struct {
	ID           string
	AccessToken  string
	RefreshToken string
	CreatedAt    time.Time
}

func GetSetuAccessToken(db *sql.DB) (*SetuAccessToken, error) {
	row := db.QueryRow(`SELECT id, access_token, refresh_token, created_at FROM setu_access_tokens LIMIT 1`)
	var t SetuAccessToken
	err := row.Scan(&t.ID, &t.AccessToken, &t.RefreshToken, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ReplaceSetuAccessToken deletes any stored token and inserts the new one.
func ReplaceSetuAccessToken(db *sql.DB, accessToken, refreshToken string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM setu_access_tokens`); err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT INTO setu_access_tokens (id, access_token, refresh_token, created_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), accessToken, refreshToken, time.Now())
	if err != nil {
		return err
	}
	return tx.Commit()
}
