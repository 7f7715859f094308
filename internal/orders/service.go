package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/globelconnect/esim-backend/internal/esimaccess"
	pkgerrors "github.com/globelconnect/esim-backend/pkg/errors"
	"github.com/globelconnect/esim-backend/pkg/logger"
	"github.com/globelconnect/esim-backend/pkg/metrics"
)

const (
	orderPackageCount        = 1
	transactionSuffixBytes   = 4
	msgOrderNoRequired       = "orderNo is required"
	msgOrderCreationFallback = "Order creation failed"
)

// ServiceParams configure the order service.
type ServiceParams struct {
	Vendor  VendorClient
	Logger  *logger.Logger
	Metrics *metrics.OrderMetrics
	Now     func() time.Time
	Random  io.Reader
}

type service struct {
	vendor  VendorClient
	logg    *logger.Logger
	metrics *metrics.OrderMetrics
	now     func() time.Time
	random  io.Reader
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Vendor == nil {
		return nil, fmt.Errorf("vendor client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	random := params.Random
	if random == nil {
		random = rand.Reader
	}
	return &service{
		vendor:  params.Vendor,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     now,
		random:  random,
	}, nil
}

// PlaceOrder creates a vendor order for one unit of the plan and polls the
// allocation once. Only missing input and a rejected order are errors.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderResult, error) {
	planCode := strings.TrimSpace(input.PlanCode)
	email := strings.TrimSpace(input.Email)
	if planCode == "" || email == "" {
		s.metrics.IncOrder(metrics.OrderOutcomeInvalid)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, InputRequiredMessage)
	}

	transactionID := s.newTransactionID()
	ctx = s.logg.WithTransactionID(ctx, transactionID)
	ctx = s.logg.WithField(ctx, "package_code", planCode)

	orderResp, err := s.vendor.OrderProfiles(ctx, esimaccess.OrderRequest{
		TransactionID: transactionID,
		PackageInfoList: []esimaccess.PackageInfo{
			{PackageCode: planCode, Count: orderPackageCount},
		},
	})
	if err != nil || orderResp == nil || !orderResp.Success {
		s.metrics.IncOrder(metrics.OrderOutcomeRejected)
		failure := pkgerrors.Wrap(pkgerrors.CodeOrderCreation, err, orderFailureMessage(orderResp))
		s.logg.Error(ctx, "order.create_failed", failure)
		return nil, failure
	}
	s.metrics.IncOrder(metrics.OrderOutcomeCreated)

	var orderNo string
	if orderResp.Obj != nil {
		orderNo = orderResp.Obj.OrderNo
	}
	ctx = s.logg.WithOrderNo(ctx, orderNo)
	s.logg.Info(ctx, "order.created")

	esim := s.queryAllocation(ctx, orderNo)
	return &OrderResult{
		Success:       true,
		OrderNo:       orderNo,
		TransactionID: transactionID,
		Esim:          esim,
		Pending:       len(esim) == 0,
	}, nil
}

// GetProfiles performs one allocation query for an existing order.
func (s *service) GetProfiles(ctx context.Context, orderNo string) (*ProfilesResult, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgOrderNoRequired)
	}
	ctx = s.logg.WithOrderNo(ctx, orderNo)
	esim := s.queryAllocation(ctx, orderNo)
	return &ProfilesResult{
		Success: true,
		OrderNo: orderNo,
		Esim:    esim,
		Pending: len(esim) == 0,
	}, nil
}

// queryAllocation makes exactly one allocation query. Every failure mode
// degrades to an empty, non-nil list.
func (s *service) queryAllocation(ctx context.Context, orderNo string) []json.RawMessage {
	resp, err := s.vendor.QueryProfiles(ctx, esimaccess.QueryRequest{OrderNo: orderNo})
	if err != nil {
		s.metrics.IncAllocation(metrics.AllocationQueryFailed)
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order.allocation_query_failed")
		return []json.RawMessage{}
	}
	esim, ok := esimList(resp)
	if !ok || len(esim) == 0 {
		s.metrics.IncAllocation(metrics.AllocationPending)
		s.logg.Info(ctx, "order.allocation_pending")
		return []json.RawMessage{}
	}
	s.metrics.IncAllocation(metrics.AllocationReady)
	s.logg.Info(s.logg.WithField(ctx, "profiles", len(esim)), "order.allocation_ready")
	return esim
}

// esimList extracts the profile array when the response is successful and
// the list is a JSON array.
func esimList(resp *esimaccess.QueryResponse) ([]json.RawMessage, bool) {
	if resp == nil || !resp.Success || resp.Obj == nil || len(resp.Obj.EsimList) == 0 {
		return nil, false
	}
	var list []json.RawMessage
	if err := json.Unmarshal(resp.Obj.EsimList, &list); err != nil || list == nil {
		return nil, false
	}
	return list, true
}

// newTransactionID returns "<unix ms>-<8 hex chars>".
func (s *service) newTransactionID() string {
	suffix := make([]byte, transactionSuffixBytes)
	if _, err := io.ReadFull(s.random, suffix); err != nil {
		id := uuid.New()
		copy(suffix, id[:transactionSuffixBytes])
	}
	return fmt.Sprintf("%d-%s", s.now().UnixMilli(), hex.EncodeToString(suffix))
}

func orderFailureMessage(resp *esimaccess.OrderResponse) string {
	if resp != nil {
		if msg := strings.TrimSpace(resp.ErrorMsg); msg != "" {
			return msg
		}
	}
	return msgOrderCreationFallback
}
