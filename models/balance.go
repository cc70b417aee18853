package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NetBalance is one user's position: positive is owed money, negative owes money.
type NetBalance struct {
	UserID     string          `json:"userId"`
	NetBalance decimal.Decimal `json:"netBalance"`
}

// SettlementSuggestion is one transfer of a minimal settlement plan.
type SettlementSuggestion struct {
	ID             string          `json:"id"`
	FromUserID     string          `json:"fromUserId"`
	ToUserID       string          `json:"toUserId"`
	Amount         decimal.Decimal `json:"amount"`
	OldestDebtDate *time.Time      `json:"oldestDebtDate"`
}

// BalanceSummary is returned for GET /api/trips/:id/balances. It is computed
// on every request and never stored.
type BalanceSummary struct {
	BaseCurrency string                 `json:"baseCurrency"`
	CalculatedAt time.Time              `json:"calculatedAt"`
	Balances     []NetBalance           `json:"balances"`
	Settlements  []SettlementSuggestion `json:"settlements"`
}

// DebtEntry is one assignee's share of a spend paid by someone else.
type DebtEntry struct {
	SpendID     string          `json:"spendId"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	FromUserID  string          `json:"fromUserId"`
	ToUserID    string          `json:"toUserId"`
	Amount      decimal.Decimal `json:"amount"`
}

// PairwiseDebt nets debts within a single pair of users only.
type PairwiseDebt struct {
	FromUserID     string          `json:"fromUserId"`
	ToUserID       string          `json:"toUserId"`
	Amount         decimal.Decimal `json:"amount"`
	OldestDebtDate *time.Time      `json:"oldestDebtDate"`
	SpendCount     int             `json:"spendCount"`
}

// DebtLedger is returned for GET /api/trips/:id/ledger.
type DebtLedger struct {
	BaseCurrency string         `json:"baseCurrency"`
	CalculatedAt time.Time      `json:"calculatedAt"`
	Entries      []DebtEntry    `json:"entries"`
	Pairs        []PairwiseDebt `json:"pairs"`
}

// TripBalance is the caller's position in one trip, for GET /api/balances.
type TripBalance struct {
	TripID       string          `json:"tripId"`
	TripName     string          `json:"tripName"`
	BaseCurrency string          `json:"baseCurrency"`
	NetBalance   decimal.Decimal `json:"netBalance"`
}
