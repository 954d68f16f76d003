package utils

import "github.com/shopspring/decimal"

// Money values are float64 on the wire and in mongo. Every arithmetic step goes
// through decimal and is rounded half away from zero to two places, so repeated
// credits and fee computations never accumulate binary drift.

const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Round(moneyPlaces).Float64()
	return f
}

// RoundMoney rounds v to two decimal places.
func RoundMoney(v float64) float64 {
	return toFloat(decimal.NewFromFloat(v))
}

// AddMoney returns a+b rounded to two decimal places.
func AddMoney(a, b float64) float64 {
	return toFloat(decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)))
}

// SubMoney returns a-b rounded to two decimal places.
func SubMoney(a, b float64) float64 {
	return toFloat(decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)))
}

// SumMoney adds all values.
func SumMoney(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return toFloat(total)
}

// PercentOf returns amount*percent/100.
func PercentOf(amount, percent float64) float64 {
	return toFloat(decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(percent)).Div(hundred))
}

// DivideMoney splits total into n equal installments. n <= 0 yields total.
func DivideMoney(total float64, n int) float64 {
	if n <= 0 {
		return RoundMoney(total)
	}
	return toFloat(decimal.NewFromFloat(total).Div(decimal.NewFromInt(int64(n))))
}
