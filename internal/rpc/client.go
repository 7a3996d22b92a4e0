package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Client is an HTTP client with retry and timeout support for Solana RPC
type Client struct {
	httpClient   *http.Client
	baseURL      string
	maxRetries   int
	retryBackoff time.Duration
	commitment   string
	logger       *logrus.Logger
}

// ClientConfig holds configuration for the RPC client
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Commitment   string // defaults to "confirmed"
	Logger       *logrus.Logger
}

// NewClient creates a new RPC client with retry support
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Commitment == "" {
		cfg.Commitment = "confirmed"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:      cfg.BaseURL,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		commitment:   cfg.Commitment,
		logger:       cfg.Logger,
	}
}

// Call makes a JSON-RPC call with retry logic
func (c *Client) Call(ctx context.Context, method string, params interface{}, result interface{}) error {
	body := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
				"method":  method,
			}).Debug("retrying RPC call")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2 // exponential backoff
		}

		resp, err := c.doRequest(ctx, data)
		if err != nil {
			lastErr = err
			continue
		}

		if err := json.Unmarshal(resp, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}

		return nil
	}

	if c.maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Handle rate limiting
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited (429)")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}

// MaxAccountsPerRequest is the getMultipleAccounts key limit.
const MaxAccountsPerRequest = 100

// GetMultipleAccounts fetches up to MaxAccountsPerRequest accounts, base64 encoded.
func (c *Client) GetMultipleAccounts(ctx context.Context, addresses []string) (*MultipleAccountsResult, error) {
	if len(addresses) > MaxAccountsPerRequest {
		return nil, fmt.Errorf("getMultipleAccounts: %d keys exceeds limit of %d", len(addresses), MaxAccountsPerRequest)
	}
	params := []interface{}{
		addresses,
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": c.commitment,
		},
	}

	var result MultipleAccountsResponse
	if err := c.Call(ctx, "getMultipleAccounts", params, &result); err != nil {
		return nil, err
	}

	if result.Error != nil {
		return nil, result.Error
	}
	if result.Result == nil {
		return nil, fmt.Errorf("getMultipleAccounts: empty result")
	}
	if len(result.Result.Value) != len(addresses) {
		return nil, fmt.Errorf("getMultipleAccounts: got %d values for %d keys", len(result.Result.Value), len(addresses))
	}

	return result.Result, nil
}

// GetMinimumBalanceForRentExemption returns the rent-exempt minimum for an
// account of the given size.
func (c *Client) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	params := []interface{}{
		size,
		map[string]interface{}{"commitment": c.commitment},
	}

	var result Uint64Response
	if err := c.Call(ctx, "getMinimumBalanceForRentExemption", params, &result); err != nil {
		return 0, err
	}

	if result.Error != nil {
		return 0, result.Error
	}

	return result.Result, nil
}

// GetLatestBlockhash fetches a recent blockhash for transaction building
func (c *Client) GetLatestBlockhash(ctx context.Context) (*BlockhashValue, error) {
	params := []interface{}{
		map[string]interface{}{"commitment": c.commitment},
	}

	var result LatestBlockhashResponse
	if err := c.Call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return nil, err
	}

	if result.Error != nil {
		return nil, result.Error
	}
	if result.Result == nil {
		return nil, fmt.Errorf("getLatestBlockhash: empty result")
	}

	return &result.Result.Value, nil
}

// SimulateTransaction runs a base64-encoded signed transaction without
// submitting it.
func (c *Client) SimulateTransaction(ctx context.Context, txBase64 string) (*SimulationValue, error) {
	params := []interface{}{
		txBase64,
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": c.commitment,
			"sigVerify":  true,
		},
	}

	var result SimulateResponse
	if err := c.Call(ctx, "simulateTransaction", params, &result); err != nil {
		return nil, err
	}

	if result.Error != nil {
		return nil, result.Error
	}
	if result.Result == nil {
		return nil, fmt.Errorf("simulateTransaction: empty result")
	}

	return &result.Result.Value, nil
}
