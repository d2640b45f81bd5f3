package payment

import (
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

var seven = decimal.NewFromInt(7)

// Capture stands in for the payment gateway. It declines when the remainder
// of the amount in cents divided by 7, truncated to an integer, is zero:
// 7.00 is declined, 1.00 and 20.00 are captured.
func Capture(amount decimal.Decimal) bool {
	return amount.Shift(2).Mod(seven).IntPart() != 0
}

// NewTxnRef returns an opaque, time-ordered provider reference.
func NewTxnRef() string {
	return "txn_" + ulid.Make().String()
}
