package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Transaction is a bank transaction row. Rows normally arrive through the
// Account Aggregator data pipeline; manual entries from the app are marked
// with FiType "DEPOSIT" and no financial account.
type Transaction struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"userId"`
	Mode               string          `json:"mode"`
	Type               string          `json:"type"`
	TxnID              sql.NullString  `json:"-"`
	Amount             float64         `json:"amount"`
	Balance            sql.NullFloat64 `json:"-"`
	Comment            sql.NullString  `json:"-"`
	Date               time.Time       `json:"date"`
	ValueDate          time.Time       `json:"valueDate"`
	FiType             string          `json:"fiType"`
	FinancialAccountID sql.NullString  `json:"-"`
}

// CreateManualTransaction inserts a user-entered transaction.
func (t *Transaction) CreateManualTransaction(db *sql.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.ValueDate.IsZero() {
		t.ValueDate = time.Now()
	}
	if t.FiType == "" {
		t.FiType = "DEPOSIT"
	}

	query := `
	INSERT INTO transactions (id, user_id, mode, type, txn_id, amount, balance, narration, reference, comment, date, value_date, fi_type, financial_account_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?, ?, ?, ?, NULL)`
	_, err := db.Exec(query,
		t.ID,
		t.UserID,
		t.Mode,
		t.Type,
		t.TxnID,
		t.Amount,
		t.Balance,
		t.Comment,
		t.Date,
		t.ValueDate,
		t.FiType,
	)
	return err
}
