package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/greenmart/checkout-service/models"
)

// Sentinel errors shared by the gateway clients.
var (
	// ErrNotFound means the upstream resource does not exist.
	ErrNotFound = errors.New("resource not found upstream")
	// ErrTransitionRejected means the order store refused a state patch,
	// e.g. a backward transition or a transition out of CANCELLED.
	ErrTransitionRejected = errors.New("order store rejected the state transition")
)

// IsTimeout reports whether err came from an upstream call hitting its
// deadline. Timeouts get their own taxonomy entry at the service layer.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// OrderAPI is the order store contract this service consumes.
type OrderAPI interface {
	Create(ctx context.Context, req *CreateOrderRequest) (*models.Order, error)
	Get(ctx context.Context, orderID string) (*models.Order, error)
	PatchState(ctx context.Context, orderID string, patch *OrderPatch, bearer string) (*models.Order, error)
}

type CreateOrderRequest struct {
	OwnerID   string                  `json:"owner_id"`
	LineItems []models.StagedLineItem `json:"line_items"`
	Address   string                  `json:"address,omitempty"`
	Memo      string                  `json:"memo,omitempty"`
}

// OrderPatch updates an order's state and, for the PAID transition, attaches
// the payment metadata.
type OrderPatch struct {
	State     models.OrderState `json:"state"`
	PaymentID string            `json:"payment_id,omitempty"`
	PaidAt    *time.Time        `json:"paid_at,omitempty"`
}

// OrderClient talks to the external order store over HTTP.
type OrderClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOrderClient(baseURL string, timeout time.Duration) *OrderClient {
	return &OrderClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *OrderClient) Create(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, upstreamError("order store", resp)
	}

	var order models.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *OrderClient) Get(ctx context.Context, orderID string) (*models.Order, error) {
	url := fmt.Sprintf("%s/orders/%s?expand=items", c.baseURL, orderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, upstreamError("order store", resp)
	}

	var order models.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *OrderClient) PatchState(ctx context.Context, orderID string, patch *OrderPatch, bearer string) (*models.Order, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/orders/%s", c.baseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return nil, ErrTransitionRejected
	default:
		return nil, upstreamError("order store", resp)
	}

	var order models.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

func upstreamError(name string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s returned %d: %s", name, resp.StatusCode, string(body))
}
