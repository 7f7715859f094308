package orders

import "encoding/json"

// InputRequiredMessage is the validation message for a missing planCode or email.
const InputRequiredMessage = "planCode and email are required"

// PlaceOrderInput is a single purchase request. Email is required but is not
// forwarded to the vendor.
type PlaceOrderInput struct {
	PlanCode string `json:"planCode" validate:"required"`
	Email    string `json:"email" validate:"required"`
}

// OrderResult is returned for every created order. Esim is empty and Pending
// is true when the vendor had not allocated profiles at poll time.
type OrderResult struct {
	Success       bool              `json:"success"`
	OrderNo       string            `json:"orderNo"`
	TransactionID string            `json:"transactionId"`
	Esim          []json.RawMessage `json:"esim"`
	Pending       bool              `json:"pending"`
}

// ProfilesResult is the outcome of a caller-driven allocation poll.
type ProfilesResult struct {
	Success bool              `json:"success"`
	OrderNo string            `json:"orderNo"`
	Esim    []json.RawMessage `json:"esim"`
	Pending bool              `json:"pending"`
}
