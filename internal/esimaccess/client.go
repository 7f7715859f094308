// Package esimaccess is a client for the eSIM Access open API: package
// listing, profile ordering and allocated-profile queries.
package esimaccess

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/globelconnect/esim-backend/internal/plans"
	pkgerrors "github.com/globelconnect/esim-backend/pkg/errors"
)

const (
	DefaultBaseURL       = "https://api.esimaccess.com/api/v1/open"
	defaultTimeout       = 30 * time.Second
	responseReadLimit    = 8 << 20
	defaultQueryPageSize = 50
	headerAccessCode     = "RT-AccessCode"
	headerRequestID      = "RT-RequestID"
	headerTimestamp      = "RT-Timestamp"
	headerSignature      = "RT-Signature"
	pathPackageList      = "package/list"
	pathOrderProfiles    = "esim/order"
	pathQueryProfiles    = "esim/query"
)

var errAccessCodeRequired = errors.New("esim access code is required")

// Client wraps the vendor endpoints used by the catalog sync and order flow.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accessCode string
	secret     string
	now        func() time.Time
	newID      func() string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the vendor base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithSecret enables request signing with the account secret key.
func WithSecret(secret string) Option {
	return func(c *Client) {
		c.secret = strings.TrimSpace(secret)
	}
}

// WithTimeout sets the HTTP client timeout applied to every vendor call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds the vendor client for the given access code.
func NewClient(accessCode string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(accessCode)
	if trimmed == "" {
		return nil, errAccessCodeRequired
	}

	client := &Client{
		accessCode: trimmed,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Envelope is the common response wrapper of the vendor API.
type Envelope struct {
	Success   bool   `json:"success"`
	ErrorCode string `json:"errorCode,omitempty"`
	ErrorMsg  string `json:"errorMsg,omitempty"`
}

// PackageListRequest filters the package listing; empty fields list everything.
type PackageListRequest struct {
	LocationCode string `json:"locationCode"`
	Type         string `json:"type"`
	PackageCode  string `json:"packageCode"`
}

type packageListResponse struct {
	Envelope
	Obj *struct {
		PackageList []json.RawMessage `json:"packageList"`
	} `json:"obj"`
}

// PackageInfo is one line of an order.
type PackageInfo struct {
	PackageCode string `json:"packageCode"`
	Count       int    `json:"count"`
}

// OrderRequest creates a vendor order. Price is omitted so the vendor charges
// its own listed price.
type OrderRequest struct {
	TransactionID   string        `json:"transactionId"`
	PackageInfoList []PackageInfo `json:"packageInfoList"`
}

type OrderResult struct {
	OrderNo string `json:"orderNo"`
}

type OrderResponse struct {
	Envelope
	Obj *OrderResult `json:"obj,omitempty"`
}

type Pager struct {
	PageNum  int `json:"pageNum"`
	PageSize int `json:"pageSize"`
}

// QueryRequest asks for the profiles allocated to an order.
type QueryRequest struct {
	OrderNo string `json:"orderNo"`
	Pager   Pager  `json:"pager"`
}

// QueryResult keeps the profile list raw; callers decide whether it is an array.
type QueryResult struct {
	EsimList json.RawMessage `json:"esimList,omitempty"`
}

type QueryResponse struct {
	Envelope
	Obj *QueryResult `json:"obj,omitempty"`
}

// ListPackages returns the vendor's purchasable packages. Each record is kept
// verbatim in Plan.Raw next to its typed view.
func (c *Client) ListPackages(ctx context.Context) ([]plans.Plan, error) {
	var resp packageListResponse
	if err := c.post(ctx, pathPackageList, PackageListRequest{}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, vendorMessage(resp.Envelope, "package listing rejected"))
	}
	if resp.Obj == nil || resp.Obj.PackageList == nil {
		return []plans.Plan{}, nil
	}
	out := make([]plans.Plan, 0, len(resp.Obj.PackageList))
	for i, record := range resp.Obj.PackageList {
		plan, err := plans.FromRecord(record)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("package record %d is malformed", i))
		}
		out = append(out, plan)
	}
	return out, nil
}

// OrderProfiles submits an order. A decoded vendor rejection is returned as a
// response with Success=false rather than an error.
func (c *Client) OrderProfiles(ctx context.Context, req OrderRequest) (*OrderResponse, error) {
	var resp OrderResponse
	if err := c.post(ctx, pathOrderProfiles, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueryProfiles fetches the profiles allocated to an order.
func (c *Client) QueryProfiles(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if req.Pager.PageNum == 0 {
		req.Pager.PageNum = 1
	}
	if req.Pager.PageSize == 0 {
		req.Pager.PageSize = defaultQueryPageSize
	}
	var resp QueryResponse
	if err := c.post(ctx, pathQueryProfiles, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, dest any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "esim access client not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal vendor request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+path, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build vendor request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.sign(httpReq, body)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute vendor request "+path)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read vendor response")
	}

	decodeErr := json.Unmarshal(raw, dest)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Some rejections come back as non-2xx with a regular envelope.
		if decodeErr == nil && hasErrorMessage(raw) {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("vendor %s returned status %d", path, resp.StatusCode))
	}
	if decodeErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, decodeErr, "decode vendor response "+path)
	}
	return nil
}

// sign sets the RT-* headers. The signature is
// hex(HMAC-SHA256(timestamp + requestID + accessCode + body, secret)).
func (c *Client) sign(req *http.Request, body []byte) {
	req.Header.Set(headerAccessCode, c.accessCode)
	if c.secret == "" {
		return
	}
	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	requestID := c.newID()
	req.Header.Set(headerTimestamp, timestamp)
	req.Header.Set(headerRequestID, requestID)
	req.Header.Set(headerSignature, Signature(c.secret, timestamp, requestID, c.accessCode, body))
}

// Signature computes the vendor request signature.
func Signature(secret, timestamp, requestID, accessCode string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte(requestID))
	mac.Write([]byte(accessCode))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func hasErrorMessage(raw []byte) bool {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false
	}
	return env.ErrorMsg != "" || env.ErrorCode != ""
}

func vendorMessage(env Envelope, fallback string) string {
	if msg := strings.TrimSpace(env.ErrorMsg); msg != "" {
		return msg
	}
	return fallback
}
