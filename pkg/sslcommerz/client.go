package sslcommerz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	sessionPath    = "/gwprocess/v4/api.php"
	validationPath = "/validator/api/validationserverAPI.php"
)

// InitRequest carries everything the hosted-redirect session needs. ValueA,
// ValueB and ValueC are opaque pass-through fields echoed back on the
// callback: the checkout service stores JSON-encoded cart items, the shipping
// address and the user id in them.
type InitRequest struct {
	TotalAmount   float64
	Currency      string
	TransactionID string

	SuccessURL string
	FailURL    string
	CancelURL  string

	CustomerName  string
	CustomerEmail string
	Address       string
	City          string
	State         string
	Zip           string
	Country       string

	ProductName     string
	ProductCategory string

	ValueA string
	ValueB string
	ValueC string
}

type InitResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

type ValidationResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"tran_id"`
	ValID         string `json:"val_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

// Valid reports whether the gateway vouches for the transaction.
func (v *ValidationResponse) Valid() bool {
	return v.Status == "VALID" || v.Status == "VALIDATED"
}

type Client interface {
	InitiateSession(ctx context.Context, req *InitRequest) (*InitResponse, error)
	ValidateTransaction(ctx context.Context, valID string) (*ValidationResponse, error)
}

type client struct {
	storeID       string
	storePassword string
	baseURL       string
	httpClient    *http.Client
	breaker       *gobreaker.CircuitBreaker[[]byte]
}

// NewClient builds a gateway client. Outbound calls run behind a circuit
// breaker so a wedged gateway fails fast instead of tying up handlers.
func NewClient(storeID, storePassword, baseURL string) Client {
	settings := gobreaker.Settings{
		Name:    "sslcommerz",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &client{
		storeID:       storeID,
		storePassword: storePassword,
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		breaker:       gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

func (c *client) do(ctx context.Context, method, rawURL string, body io.Reader, contentType string) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
		if err != nil {
			return nil, fmt.Errorf("failed to build gateway request: %w", err)
		}

		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("gateway request failed: %w", err)
		}

		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	})
}

func (c *client) InitiateSession(ctx context.Context, req *InitRequest) (*InitResponse, error) {
	if c.storeID == "" || c.storePassword == "" {
		return nil, errors.New("gateway credentials not configured")
	}

	form := url.Values{}
	form.Set("store_id", c.storeID)
	form.Set("store_passwd", c.storePassword)
	form.Set("total_amount", fmt.Sprintf("%.2f", req.TotalAmount))
	form.Set("currency", req.Currency)
	form.Set("tran_id", req.TransactionID)
	form.Set("success_url", req.SuccessURL)
	form.Set("fail_url", req.FailURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("cus_name", req.CustomerName)
	form.Set("cus_email", req.CustomerEmail)
	form.Set("cus_add1", req.Address)
	form.Set("cus_city", req.City)
	form.Set("cus_state", req.State)
	form.Set("cus_postcode", req.Zip)
	form.Set("cus_country", req.Country)
	form.Set("shipping_method", "Courier")
	form.Set("ship_name", req.CustomerName)
	form.Set("ship_add1", req.Address)
	form.Set("ship_city", req.City)
	form.Set("ship_state", req.State)
	form.Set("ship_postcode", req.Zip)
	form.Set("ship_country", req.Country)
	form.Set("product_name", req.ProductName)
	form.Set("product_category", req.ProductCategory)
	form.Set("product_profile", "physical-goods")
	form.Set("value_a", req.ValueA)
	form.Set("value_b", req.ValueB)
	form.Set("value_c", req.ValueC)

	body, err := c.do(ctx, http.MethodPost, c.baseURL+sessionPath,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}

	initResp := &InitResponse{}
	if err := json.Unmarshal(body, initResp); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}

	if initResp.Status != "SUCCESS" {
		return nil, fmt.Errorf("gateway rejected session: %s", initResp.FailedReason)
	}

	return initResp, nil
}

// ValidateTransaction asks the gateway whether a callback's val_id is
// authentic. The answer is authoritative; the callback body is not.
func (c *client) ValidateTransaction(ctx context.Context, valID string) (*ValidationResponse, error) {
	if c.storeID == "" || c.storePassword == "" {
		return nil, errors.New("gateway credentials not configured")
	}

	query := url.Values{}
	query.Set("val_id", valID)
	query.Set("store_id", c.storeID)
	query.Set("store_passwd", c.storePassword)
	query.Set("format", "json")

	body, err := c.do(ctx, http.MethodGet, c.baseURL+validationPath+"?"+query.Encode(), nil, "")
	if err != nil {
		return nil, err
	}

	validationResp := &ValidationResponse{}
	if err := json.Unmarshal(body, validationResp); err != nil {
		return nil, fmt.Errorf("failed to decode validation response: %w", err)
	}

	return validationResp, nil
}
