package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Consent   bool      `json:"consent"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

func (c *Customer) HashPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.Password = string(hashedPassword)
	return nil
}

func (c *Customer) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(c.Password), []byte(password))
}

func (c *Customer) CreateCustomer(db *sql.DB) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	query := `
	INSERT INTO customers (id, name, email, password, consent, phone, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.Exec(query,
		c.ID,
		c.Name,
		c.Email,
		c.Password,
		c.Consent,
		nullableString(c.Phone),
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func scanCustomer(row *sql.Row) (*Customer, error) {
	var c Customer
	var name, phone sql.NullString
	err := row.Scan(&c.ID, &name, &c.Email, &c.Password, &c.Consent, &phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Name = name.String
	c.Phone = phone.String
	return &c, nil
}

func GetCustomerByEmail(db *sql.DB, email string) (*Customer, error) {
	row := db.QueryRow(`
	SELECT id, name, email, password, consent, phone, created_at, updated_at
	FROM customers WHERE email = ?`, email)
	return scanCustomer(row)
}

func GetCustomerByID(db *sql.DB, id string) (*Customer, error) {
	row := db.QueryRow(`
	SELECT id, name, email, password, consent, phone, created_at, updated_at
	FROM customers WHERE id = ?`, id)
	return scanCustomer(row)
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
