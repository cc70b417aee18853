package services

import (
	"sort"
	"time"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/shopspring/decimal"
)

// BuildDebtLedger lists every direct debt (assignee owes payer) without
// multi-party netting. Pairs are netted within each pair of users only, so
// every pair total traces back to concrete spends.
func BuildDebtLedger(ledger TripLedger, calculatedAt time.Time) (models.DebtLedger, []DataIntegrityWarning) {
	currency := ledger.BaseCurrency
	epsilon := utils.SettlementEpsilon(currency)
	spends, warnings := qualifyingSpends(ledger)

	entries := make([]models.DebtEntry, 0)
	for _, spend := range spends {
		for _, a := range spend.Assignments {
			if a.UserID == spend.PayerID || !a.NormalizedShareAmount.IsPositive() {
				continue
			}
			entries = append(entries, models.DebtEntry{
				SpendID:     spend.ID,
				Description: spend.Description,
				Date:        spend.Date,
				FromUserID:  a.UserID,
				ToUserID:    spend.PayerID,
				Amount:      utils.RoundMoney(a.NormalizedShareAmount, currency),
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		if entries[i].SpendID != entries[j].SpendID {
			return entries[i].SpendID < entries[j].SpendID
		}
		return entries[i].FromUserID < entries[j].FromUserID
	})

	type pairState struct {
		// positive: Low owes High
		amount decimal.Decimal
		count  int
		oldest map[bool]time.Time
	}
	pairs := make(map[debtPair]*pairState)
	for _, e := range entries {
		low, high, lowOwes := e.FromUserID, e.ToUserID, true
		if high < low {
			low, high, lowOwes = high, low, false
		}
		key := debtPair{From: low, To: high}
		st, ok := pairs[key]
		if !ok {
			st = &pairState{oldest: make(map[bool]time.Time)}
			pairs[key] = st
		}
		if lowOwes {
			st.amount = st.amount.Add(e.Amount)
		} else {
			st.amount = st.amount.Sub(e.Amount)
		}
		st.count++
		if d, seen := st.oldest[lowOwes]; !seen || e.Date.Before(d) {
			st.oldest[lowOwes] = e.Date
		}
	}

	keys := make([]debtPair, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].From != keys[j].From {
			return keys[i].From < keys[j].From
		}
		return keys[i].To < keys[j].To
	})

	result := make([]models.PairwiseDebt, 0, len(keys))
	for _, k := range keys {
		st := pairs[k]
		amount := utils.RoundMoney(st.amount, currency)
		if amount.Abs().LessThanOrEqual(epsilon) {
			continue
		}
		pair := models.PairwiseDebt{FromUserID: k.From, ToUserID: k.To, Amount: amount, SpendCount: st.count}
		lowOwes := amount.IsPositive()
		if !lowOwes {
			pair.FromUserID, pair.ToUserID = k.To, k.From
			pair.Amount = amount.Neg()
		}
		if d, ok := st.oldest[lowOwes]; ok {
			pair.OldestDebtDate = &d
		}
		result = append(result, pair)
	}

	return models.DebtLedger{
		BaseCurrency: currency,
		CalculatedAt: calculatedAt,
		Entries:      entries,
		Pairs:        result,
	}, warnings
}
