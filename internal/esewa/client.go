package esewa

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"

	"github.com/fjod/go_shop/internal/domain"
)

// statusComplete is the provider's terminal success state for a
// transaction status lookup.
const statusComplete = "COMPLETE"

type Config struct {
	MerchantCode string
	SecretKey    string
	VerifyURL    string
	SuccessURL   string
	FailureURL   string
	Timeout      time.Duration
}

// Client isolates the provider wire format: request fields, response
// parsing and the signature scheme all stay in this package. The secret
// key never leaves the process.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[bool]
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:    "esewa-verify",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
	}
}

func (c *Client) MerchantCode() string {
	return c.cfg.MerchantCode
}

func (c *Client) SuccessURL() string {
	return c.cfg.SuccessURL
}

func (c *Client) FailureURL() string {
	return c.cfg.FailureURL
}

// SignFields computes the provider signature: HMAC-SHA256 over the
// canonical field=value pairs joined by commas, base64-encoded. The field
// order is fixed by the provider and must not change.
func (c *Client) SignFields(totalAmount, transactionRef string) string {
	message := fmt.Sprintf("total_amount=%s,transaction_uuid=%s,product_code=%s",
		totalAmount, transactionRef, c.cfg.MerchantCode)

	mac := hmac.New(sha256.New, []byte(c.cfg.SecretKey))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// verifyResponse mirrors the provider's transaction status body. Only the
// status field matters here.
type verifyResponse struct {
	Status string `json:"status"`
}

// Verify asks the provider whether the payment behind transactionRef was
// actually received for totalAmount. The lookup is read-only on the
// provider side, so callers may retry freely. Any transport failure,
// non-2xx response or unparseable body reads as not verified, never as a
// crash.
func (c *Client) Verify(ctx context.Context, transactionRef string, totalAmount decimal.Decimal) bool {
	ok, err := c.breaker.Execute(func() (bool, error) {
		return c.doVerify(ctx, transactionRef, totalAmount)
	})
	if err != nil {
		log.Printf("esewa verify failed for ref %s: %v", transactionRef, err)
		return false
	}
	return ok
}

func (c *Client) doVerify(ctx context.Context, transactionRef string, totalAmount decimal.Decimal) (bool, error) {
	form := url.Values{}
	form.Set("product_code", c.cfg.MerchantCode)
	form.Set("transaction_uuid", transactionRef)
	form.Set("total_amount", domain.FormatAmount(totalAmount))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("verify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("verify returned status %d", resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("parse verify response: %w", err)
	}

	return body.Status == statusComplete, nil
}
