package services

import (
	"sort"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type ShareInput struct {
	UserID uuid.UUID
	Value  decimal.Decimal
}

// ResolvedShare is one assignment ready to be stored.
type ResolvedShare struct {
	UserID                uuid.UUID
	ShareAmount           decimal.Decimal
	NormalizedShareAmount decimal.Decimal
	SplitValue            decimal.Decimal
}

// ResolveSplits turns a split request into per-user shares. Shares sum
// exactly to amount and normalized shares sum exactly to normalized. No
// share is ever negative.
func ResolveSplits(splitType string, amount, normalized decimal.Decimal, currency, baseCurrency string, inputs []ShareInput) ([]ResolvedShare, error) {
	if len(inputs) == 0 {
		return nil, utils.Validationf("at least one participant is required")
	}
	if !amount.IsPositive() {
		return nil, utils.Validationf("amount must be greater than 0")
	}

	sorted := make([]ShareInput, len(inputs))
	copy(sorted, inputs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].UserID.String() < sorted[j].UserID.String() })

	seen := make(map[uuid.UUID]bool, len(sorted))
	for _, in := range sorted {
		if in.UserID == uuid.Nil {
			return nil, utils.Validationf("invalid participant")
		}
		if seen[in.UserID] {
			return nil, utils.Validationf("participant %s listed twice", in.UserID)
		}
		seen[in.UserID] = true
	}

	weights := make([]decimal.Decimal, len(sorted))
	values := make([]decimal.Decimal, len(sorted))

	switch splitType {
	case models.SplitEqual:
		for i := range sorted {
			weights[i] = decimal.NewFromInt(1)
			values[i] = decimal.NewFromInt(1)
		}

	case models.SplitPercent:
		total := decimal.Zero
		for i, in := range sorted {
			if in.Value.IsNegative() {
				return nil, utils.Validationf("percentages cannot be negative")
			}
			weights[i] = in.Value
			values[i] = in.Value
			total = total.Add(in.Value)
		}
		if !total.Round(4).Equal(hundred) {
			return nil, utils.Validationf("percentages must add up to 100, got %s", total.String())
		}

	case models.SplitExact:
		total := decimal.Zero
		for i, in := range sorted {
			if in.Value.IsNegative() {
				return nil, utils.Validationf("split amounts cannot be negative")
			}
			weights[i] = utils.RoundMoney(in.Value, currency)
			values[i] = weights[i]
			total = total.Add(weights[i])
		}
		if !total.Equal(utils.RoundMoney(amount, currency)) {
			return nil, utils.Validationf("split amounts (%s) don't add up to total (%s)", total.StringFixed(utils.CurrencyPrecision(currency)), amount.StringFixed(utils.CurrencyPrecision(currency)))
		}

	default:
		return nil, utils.Validationf("invalid split type: %s", splitType)
	}

	shares, ok := allocate(utils.RoundMoney(amount, currency), weights, currency)
	if !ok {
		return nil, utils.Validationf("at least one participant must owe a share")
	}
	normalizedShares, _ := allocate(utils.RoundMoney(normalized, baseCurrency), weights, baseCurrency)

	resolved := make([]ResolvedShare, len(sorted))
	for i, in := range sorted {
		resolved[i] = ResolvedShare{
			UserID:                in.UserID,
			ShareAmount:           shares[i],
			NormalizedShareAmount: normalizedShares[i],
			SplitValue:            values[i],
		}
	}
	return resolved, nil
}

// allocate splits total proportionally to weights. Each part is rounded
// down to the currency's minor unit, then the leftover units go one at a time
// to the largest remainders, ties in user id order.
func allocate(total decimal.Decimal, weights []decimal.Decimal, currency string) ([]decimal.Decimal, bool) {
	sum := decimal.Zero
	positive := make([]int, 0, len(weights))
	for i, w := range weights {
		sum = sum.Add(w)
		if w.IsPositive() {
			positive = append(positive, i)
		}
	}
	if len(positive) == 0 || !sum.IsPositive() {
		return nil, false
	}

	precision := utils.CurrencyPrecision(currency)
	unit := decimal.New(1, -precision)

	parts := make([]decimal.Decimal, len(weights))
	remainders := make([]decimal.Decimal, len(weights))
	allocated := decimal.Zero
	for i, w := range weights {
		exact := total.Mul(w).Div(sum)
		parts[i] = exact.RoundFloor(precision)
		remainders[i] = exact.Sub(parts[i])
		allocated = allocated.Add(parts[i])
	}

	sort.SliceStable(positive, func(a, b int) bool {
		return remainders[positive[a]].GreaterThan(remainders[positive[b]])
	})
	leftover := total.Sub(allocated).Div(unit).IntPart()
	for n := int64(0); n < leftover; n++ {
		i := positive[n%int64(len(positive))]
		parts[i] = parts[i].Add(unit)
	}
	return parts, true
}
