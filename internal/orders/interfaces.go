package orders

import (
	"context"

	"github.com/globelconnect/esim-backend/internal/esimaccess"
)

// VendorClient is the slice of the eSIM Access client the order flow calls.
type VendorClient interface {
	OrderProfiles(ctx context.Context, req esimaccess.OrderRequest) (*esimaccess.OrderResponse, error)
	QueryProfiles(ctx context.Context, req esimaccess.QueryRequest) (*esimaccess.QueryResponse, error)
}

// Service places vendor orders and reports allocated profiles.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderResult, error)
	GetProfiles(ctx context.Context, orderNo string) (*ProfilesResult, error)
}
