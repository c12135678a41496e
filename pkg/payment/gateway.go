// Package payment wraps the UPI payment processor (Paygic) behind a small
// gateway interface so services never talk HTTP directly and tests can use
// the mock.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Transaction status values reported by the processor.
const (
	StatusPending = "PENDING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// CreatePaymentRequest is the input for creating a hosted payment page.
// Metadata travels opaquely through the processor and comes back on the
// webhook, which is how the webhook recovers user/tool/plan context.
type CreatePaymentRequest struct {
	OrderID       string
	Amount        int64 // paise
	CustomerEmail string
	Metadata      map[string]string
}

// CreatePaymentResponse carries the redirect link for the payment page.
type CreatePaymentResponse struct {
	PaymentURL string
	OrderID    string
}

// StatusResponse is the processor's view of a transaction.
type StatusResponse struct {
	OrderID  string
	Status   string
	Amount   int64
	Metadata map[string]string
}

// Gateway defines the operations the backend needs from the payment
// processor: create a payment page, poll its status, and verify webhook
// signatures.
type Gateway interface {
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error)
	CheckStatus(ctx context.Context, orderID string) (*StatusResponse, error)
	VerifySignature(payload []byte, signature string) bool
}

// PaygicGateway talks to the Paygic HTTP API.
type PaygicGateway struct {
	baseURL    string
	merchantID string
	secret     string
	client     *http.Client
}

// NewPaygicGateway creates a gateway client for the given merchant.
func NewPaygicGateway(baseURL, merchantID, secret string) *PaygicGateway {
	return &PaygicGateway{
		baseURL:    baseURL,
		merchantID: merchantID,
		secret:     secret,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

type paygicCreateBody struct {
	MID         string            `json:"mid"`
	MerchantRef string            `json:"merchantReferenceId"`
	Amount      int64             `json:"amount"`
	CustomerEm  string            `json:"customerEmail,omitempty"`
	Metadata    map[string]string `json:"udf,omitempty"`
}

type paygicCreateResult struct {
	Status bool   `json:"status"`
	Msg    string `json:"msg"`
	Data   struct {
		PaymentLink string `json:"paymentLink"`
	} `json:"data"`
}

// CreatePayment creates a hosted payment page and returns its link.
func (g *PaygicGateway) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error) {
	body := paygicCreateBody{
		MID:         g.merchantID,
		MerchantRef: req.OrderID,
		Amount:      req.Amount,
		CustomerEm:  req.CustomerEmail,
		Metadata:    req.Metadata,
	}

	var result paygicCreateResult
	if err := g.post(ctx, "/api/createPaymentPage", body, &result); err != nil {
		return nil, err
	}
	if !result.Status || result.Data.PaymentLink == "" {
		return nil, fmt.Errorf("paygic rejected payment creation: %s", result.Msg)
	}

	return &CreatePaymentResponse{PaymentURL: result.Data.PaymentLink, OrderID: req.OrderID}, nil
}

type paygicStatusResult struct {
	Status bool   `json:"status"`
	Msg    string `json:"msg"`
	Data   struct {
		MerchantRef string            `json:"merchantReferenceId"`
		TxnStatus   string            `json:"txnStatus"`
		Amount      int64             `json:"amount"`
		Metadata    map[string]string `json:"udf,omitempty"`
	} `json:"data"`
}

// CheckStatus polls the processor for the transaction state of an order.
func (g *PaygicGateway) CheckStatus(ctx context.Context, orderID string) (*StatusResponse, error) {
	body := map[string]string{"mid": g.merchantID, "merchantReferenceId": orderID}

	var result paygicStatusResult
	if err := g.post(ctx, "/api/checkPaymentStatus", body, &result); err != nil {
		return nil, err
	}
	if !result.Status {
		return nil, fmt.Errorf("paygic status check failed: %s", result.Msg)
	}

	return &StatusResponse{
		OrderID:  result.Data.MerchantRef,
		Status:   result.Data.TxnStatus,
		Amount:   result.Data.Amount,
		Metadata: result.Data.Metadata,
	}, nil
}

// VerifySignature checks the HMAC-SHA256 webhook signature against the
// merchant secret. Accepts an optional "sha256=" prefix.
func (g *PaygicGateway) VerifySignature(payload []byte, signature string) bool {
	if signature == "" {
		return false
	}
	if len(signature) > 7 && signature[:7] == "sha256=" {
		signature = signature[7:]
	}

	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (g *PaygicGateway) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal paygic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to build paygic request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("paygic request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("paygic returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode paygic response: %w", err)
	}
	return nil
}

// MockGateway is a dummy implementation for tests and local development.
// It records created orders and treats every signature as valid.
type MockGateway struct {
	Created []CreatePaymentRequest
	Status  map[string]string // orderID -> status override
}

func NewMockGateway() *MockGateway {
	return &MockGateway{Status: make(map[string]string)}
}

func (g *MockGateway) CreatePayment(_ context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error) {
	g.Created = append(g.Created, *req)
	return &CreatePaymentResponse{
		PaymentURL: "https://pay.example.com/page?ref=" + req.OrderID,
		OrderID:    req.OrderID,
	}, nil
}

func (g *MockGateway) CheckStatus(_ context.Context, orderID string) (*StatusResponse, error) {
	status, ok := g.Status[orderID]
	if !ok {
		status = StatusPending
	}
	return &StatusResponse{OrderID: orderID, Status: status}, nil
}

func (g *MockGateway) VerifySignature([]byte, string) bool {
	return true
}
