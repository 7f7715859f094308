package plans

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FromRecord builds the catalog view of one vendor package record. The record
// itself is kept in Raw untouched. Fields with an unexpected JSON type do not
// fail the record: strings become empty, numerics nil (price 0), and numeric
// strings are accepted.
func FromRecord(raw json.RawMessage) (Plan, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Plan{}, fmt.Errorf("decode package record: %w", err)
	}
	if fields == nil {
		return Plan{}, fmt.Errorf("package record is not an object")
	}

	plan := Plan{
		PackageCode: stringField(fields["packageCode"]),
		Name:        stringField(fields["name"]),
		Region:      stringField(fields["region"]),
		Country:     stringField(fields["country"]),
		Status:      stringField(fields["status"]),
		Raw:         append(json.RawMessage(nil), raw...),
	}
	if v, ok := numberField(fields["dataGb"]); ok {
		plan.DataGB = &v
	}
	if v, ok := numberField(fields["validityDays"]); ok && v == math.Trunc(v) && math.Abs(v) <= math.MaxInt32 {
		days := int(v)
		plan.ValidityDays = &days
	}
	if v, ok := numberField(fields["price"]); ok && v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		plan.Price = int64(v)
	}
	return plan, nil
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}

func numberField(v any) (float64, bool) {
	var text string
	switch typed := v.(type) {
	case json.Number:
		text = typed.String()
	case string:
		text = strings.TrimSpace(typed)
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
