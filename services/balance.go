package services

import (
	"fmt"
	"sort"
	"time"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TripLedger is the snapshot the balance engine works on: every
// non-deleted spend of a trip with its assignments.
type TripLedger struct {
	TripID       string
	BaseCurrency string
	Spends       []LedgerSpend
}

type LedgerSpend struct {
	ID               string
	PayerID          string
	Description      string
	Currency         string
	Amount           decimal.Decimal
	FxRate           decimal.Decimal
	NormalizedAmount decimal.Decimal
	Date             time.Time
	Status           string
	Assignments      []LedgerAssignment
}

type LedgerAssignment struct {
	SpendID               string
	UserID                string
	ShareAmount           decimal.Decimal
	NormalizedShareAmount decimal.Decimal
}

// DataIntegrityWarning describes a record the engine skipped.
type DataIntegrityWarning struct {
	SpendID string
	UserID  string
	Reason  string
}

func (w DataIntegrityWarning) String() string {
	if w.UserID != "" {
		return fmt.Sprintf("spend %s, user %s: %s", w.SpendID, w.UserID, w.Reason)
	}
	return fmt.Sprintf("spend %s: %s", w.SpendID, w.Reason)
}

// qualifyingSpends drops malformed spends and assignments. One bad record
// never blocks the rest of the trip.
func qualifyingSpends(ledger TripLedger) ([]LedgerSpend, []DataIntegrityWarning) {
	var warnings []DataIntegrityWarning
	spends := make([]LedgerSpend, 0, len(ledger.Spends))

	for _, spend := range ledger.Spends {
		if spend.PayerID == "" {
			warnings = append(warnings, DataIntegrityWarning{SpendID: spend.ID, Reason: "missing payer"})
			continue
		}
		if !spend.FxRate.IsPositive() {
			warnings = append(warnings, DataIntegrityWarning{SpendID: spend.ID, Reason: "missing fx rate"})
			continue
		}
		if spend.NormalizedAmount.IsNegative() {
			warnings = append(warnings, DataIntegrityWarning{SpendID: spend.ID, Reason: "negative normalized amount"})
			continue
		}

		kept := spend
		kept.Assignments = make([]LedgerAssignment, 0, len(spend.Assignments))
		for _, a := range spend.Assignments {
			switch {
			case a.UserID == "":
				warnings = append(warnings, DataIntegrityWarning{SpendID: spend.ID, Reason: "assignment without user"})
			case a.NormalizedShareAmount.IsNegative():
				warnings = append(warnings, DataIntegrityWarning{SpendID: spend.ID, UserID: a.UserID, Reason: "negative share"})
			default:
				kept.Assignments = append(kept.Assignments, a)
			}
		}
		spends = append(spends, kept)
	}

	return spends, warnings
}

type position struct {
	UserID string
	Amount decimal.Decimal
}

// CalculateBalances nets every qualifying spend into per-user balances and
// produces a greedy minimal settlement plan in the trip's base currency.
//
// Balances are rounded to the currency's minor unit before matching, so
// every transfer is an exact multiple of the minor unit. A residue left by
// assignments that do not cover their spend stays in the balances of the
// users involved; it is not attributed to anyone else.
func CalculateBalances(ledger TripLedger, calculatedAt time.Time) (models.BalanceSummary, []DataIntegrityWarning) {
	currency := ledger.BaseCurrency
	epsilon := utils.SettlementEpsilon(currency)
	spends, warnings := qualifyingSpends(ledger)

	net := make(map[string]decimal.Decimal)
	for _, spend := range spends {
		net[spend.PayerID] = net[spend.PayerID].Add(spend.NormalizedAmount)
		for _, a := range spend.Assignments {
			net[a.UserID] = net[a.UserID].Sub(a.NormalizedShareAmount)
		}
	}

	userIDs := make([]string, 0, len(net))
	for id := range net {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	balances := make([]models.NetBalance, 0, len(userIDs))
	var creditors, debtors []position
	for _, id := range userIDs {
		rounded := utils.RoundMoney(net[id], currency)
		balances = append(balances, models.NetBalance{UserID: id, NetBalance: rounded})

		switch {
		case rounded.GreaterThan(epsilon):
			creditors = append(creditors, position{UserID: id, Amount: rounded})
		case rounded.LessThan(epsilon.Neg()):
			debtors = append(debtors, position{UserID: id, Amount: rounded.Neg()})
		}
	}

	oldest := oldestDebtDates(spends)
	settlements := make([]models.SettlementSuggestion, 0)

	for len(creditors) > 0 && len(debtors) > 0 {
		ci := largest(creditors)
		di := largest(debtors)
		creditor, debtor := creditors[ci], debtors[di]

		amount := utils.RoundMoney(decimal.Min(creditor.Amount, debtor.Amount), currency)
		if amount.IsPositive() {
			settlements = append(settlements, models.SettlementSuggestion{
				ID:             settlementID(ledger.TripID, debtor.UserID, creditor.UserID, len(settlements)),
				FromUserID:     debtor.UserID,
				ToUserID:       creditor.UserID,
				Amount:         amount,
				OldestDebtDate: oldest[debtPair{From: debtor.UserID, To: creditor.UserID}],
			})
		}

		creditors[ci].Amount = creditor.Amount.Sub(amount)
		debtors[di].Amount = debtor.Amount.Sub(amount)

		if !creditors[ci].Amount.GreaterThan(epsilon) {
			creditors = append(creditors[:ci], creditors[ci+1:]...)
		}
		if !debtors[di].Amount.GreaterThan(epsilon) {
			debtors = append(debtors[:di], debtors[di+1:]...)
		}
	}

	return models.BalanceSummary{
		BaseCurrency: currency,
		CalculatedAt: calculatedAt,
		Balances:     balances,
		Settlements:  settlements,
	}, warnings
}

// largest returns the index of the biggest position, lowest user id on ties.
func largest(positions []position) int {
	best := 0
	for i := 1; i < len(positions); i++ {
		cmp := positions[i].Amount.Cmp(positions[best].Amount)
		if cmp > 0 || (cmp == 0 && positions[i].UserID < positions[best].UserID) {
			best = i
		}
	}
	return best
}

type debtPair struct {
	From string
	To   string
}

// oldestDebtDates maps (assignee, payer) to the earliest spend where the
// assignee owed the payer directly. Netted settlements only approximate the
// real chain of debts, so the result is display metadata.
func oldestDebtDates(spends []LedgerSpend) map[debtPair]*time.Time {
	dates := make(map[debtPair]*time.Time)
	for _, spend := range spends {
		for _, a := range spend.Assignments {
			if a.UserID == spend.PayerID || !a.NormalizedShareAmount.IsPositive() {
				continue
			}
			key := debtPair{From: a.UserID, To: spend.PayerID}
			if current, ok := dates[key]; !ok || spend.Date.Before(*current) {
				date := spend.Date
				dates[key] = &date
			}
		}
	}
	return dates
}

var settlementNamespace = uuid.MustParse("6f1d2c1e-4b7a-4f0e-9a55-3d7c1b2e8f10")

// settlementID is derived from its inputs so repeated calculations over the
// same snapshot return the same ids.
func settlementID(tripID, from, to string, index int) string {
	name := fmt.Sprintf("%s/%s/%s/%d", tripID, from, to, index)
	return uuid.NewSHA1(settlementNamespace, []byte(name)).String()
}
