package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// DeathRate formats deaths/confirmed as a two-decimal percentage, "0.00%" when
// nothing is confirmed.
func DeathRate(t Totals) string {
	return percent(t.Deaths, t.Confirmed)
}

// RecoveryRate formats recovered/confirmed as a two-decimal percentage, "0.00%"
// when nothing is confirmed.
func RecoveryRate(t Totals) string {
	return percent(t.Recovered, t.Confirmed)
}

func percent(part, whole int64) string {
	if whole == 0 {
		return "0.00%"
	}
	return decimal.NewFromInt(part).Mul(hundred).Div(decimal.NewFromInt(whole)).StringFixed(2) + "%"
}
