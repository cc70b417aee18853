package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Minor-unit digits for ISO 4217 codes that do not use two.
var currencyPrecision = map[string]int32{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0,
	"KRW": 0, "PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0,
	"XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

// CurrencyPrecision returns the number of minor-unit digits for a currency code.
func CurrencyPrecision(currency string) int32 {
	if p, ok := currencyPrecision[strings.ToUpper(currency)]; ok {
		return p
	}
	return 2
}

// RoundMoney rounds half away from zero to the currency's minor unit.
func RoundMoney(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Round(CurrencyPrecision(currency))
}

// SettlementEpsilon is half of one minor unit: 0.005 for USD, 0.5 for JPY.
func SettlementEpsilon(currency string) decimal.Decimal {
	return decimal.New(5, -(CurrencyPrecision(currency) + 1))
}

// NormalizeAmount converts an amount into the base currency.
func NormalizeAmount(amount, fxRate decimal.Decimal, baseCurrency string) decimal.Decimal {
	return RoundMoney(amount.Mul(fxRate), baseCurrency)
}

// IsCurrencyCode reports whether s looks like an ISO 4217 alpha code.
func IsCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
