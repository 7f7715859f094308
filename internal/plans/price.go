package plans

import "github.com/shopspring/decimal"

// vendorPriceScale is the number of decimal places in the vendor's minor-unit price.
const vendorPriceScale = 4

// FormatPrice renders a vendor minor-unit price (1/10000 of the currency unit)
// as a fixed two-decimal amount, e.g. 19900 -> "1.99".
func FormatPrice(price int64) string {
	return PriceAmount(price).StringFixed(2)
}

// PriceAmount converts a vendor minor-unit price to a currency amount.
func PriceAmount(price int64) decimal.Decimal {
	return decimal.NewFromInt(price).Shift(-vendorPriceScale)
}
