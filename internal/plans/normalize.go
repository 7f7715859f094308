package plans

import (
	"math"
	"strconv"
	"strings"
)

// Row is one CSV record keyed by its header column names.
type Row map[string]string

// first returns the first non-empty value among keys.
func (r Row) first(keys ...string) string {
	for _, key := range keys {
		if v := r[key]; v != "" {
			return v
		}
	}
	return ""
}

// NormalizeRow maps a CSV feed row onto the canonical Plan shape. It never
// fails: numeric columns that cannot be parsed degrade to nil, and price to 0.
func NormalizeRow(row Row) Plan {
	status := row.first("status")
	if status == "" {
		status = DefaultStatus
	}
	return Plan{
		PackageCode:  row.first("sku", "packageCode"),
		Name:         row["name"],
		Region:       row["region"],
		Country:      row.first("countries", "country"),
		DataGB:       parseDataGB(row.first("data_gb", "dataGb", "data")),
		ValidityDays: parseValidityDays(row.first("validity_days", "validityDays", "validity")),
		Price:        parsePrice(row["price"]),
		Status:       status,
	}
}

// NormalizeRows applies NormalizeRow to every row, preserving order.
func NormalizeRows(rows []Row) []Plan {
	out := make([]Plan, 0, len(rows))
	for _, row := range rows {
		out = append(out, NormalizeRow(row))
	}
	return out
}

// Zero is treated the same as unparseable for data and validity.
func parseDataGB(raw string) *float64 {
	v, ok := leadingFloat(raw)
	if !ok || v == 0 {
		return nil
	}
	return &v
}

func parseValidityDays(raw string) *int {
	v, ok := leadingInt(raw)
	if !ok || v == 0 || v > math.MaxInt32 || v < math.MinInt32 {
		return nil
	}
	days := int(v)
	return &days
}

func parsePrice(raw string) int64 {
	v, ok := leadingInt(raw)
	if !ok {
		return 0
	}
	return v
}

// leadingFloat parses the longest decimal prefix of raw, so "5GB" yields 5.
func leadingFloat(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && isDigit(s[end]) {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		expDigits := exp
		for exp < len(s) && isDigit(s[exp]) {
			exp++
		}
		if exp > expDigits {
			end = exp
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// leadingInt parses the longest base-10 integer prefix of raw, so "30 days" yields 30.
func leadingInt(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == start {
		return 0, false
	}
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
