// Package verify submits deployed contracts to a block explorer for source verification.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	apperrors "github.com/nathanTypo/lottery-pc/internal/pkg/errors"
)

// DefaultAPIURL is the Etherscan v2 multichain endpoint.
const DefaultAPIURL = "https://api.etherscan.io/v2/api"

// Request is one contract to verify.
type Request struct {
	ChainID int64
	Address common.Address
	// ContractName is the fully qualified name, "contracts/Lottery.sol:Lottery".
	ContractName      string
	CompilerVersion   string
	StandardJSONInput json.RawMessage
	ConstructorArgs   []byte
}

// Client talks to the Etherscan verification API.
type Client struct {
	apiURL       string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
	maxAttempts  int
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAPIURL overrides the API endpoint.
func WithAPIURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.apiURL = u
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithPolling sets how often and how many times the verification status is checked.
func WithPolling(interval time.Duration, maxAttempts int) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates an Etherscan client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiURL:       DefaultAPIURL,
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: 5 * time.Second,
		maxAttempts:  20,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

func alreadyVerified(result string) bool {
	return strings.Contains(strings.ToLower(result), "already verified")
}

// Verify submits the source and waits for the explorer's verdict. A contract that is
// already verified counts as success.
func (c *Client) Verify(ctx context.Context, req Request) error {
	c.logger.Info("Verifying contract...",
		slog.String("address", req.Address.Hex()),
		slog.String("contract", req.ContractName),
		slog.Int64("chain_id", req.ChainID),
	)

	form := url.Values{}
	form.Set("apikey", c.apiKey)
	form.Set("module", "contract")
	form.Set("action", "verifysourcecode")
	form.Set("contractaddress", req.Address.Hex())
	form.Set("sourceCode", string(req.StandardJSONInput))
	form.Set("codeformat", "solidity-standard-json-input")
	form.Set("contractname", req.ContractName)
	form.Set("compilerversion", compilerVersion(req.CompilerVersion))
	// The API spells this parameter with the typo.
	form.Set("constructorArguements", strings.TrimPrefix(hexutil.Encode(req.ConstructorArgs), "0x"))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(req.ChainID, nil), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(httpReq)
	if err != nil {
		return err
	}

	if resp.Status != "1" {
		if alreadyVerified(resp.Result) {
			c.logger.Info("Already Verified!", slog.String("address", req.Address.Hex()))
			return nil
		}
		return apperrors.NewVerificationError(resp.Result)
	}

	return c.waitForResult(ctx, req.ChainID, resp.Result)
}

func (c *Client) waitForResult(ctx context.Context, chainID int64, guid string) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		q := url.Values{}
		q.Set("apikey", c.apiKey)
		q.Set("module", "contract")
		q.Set("action", "checkverifystatus")
		q.Set("guid", guid)

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(chainID, q), nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		resp, err := c.do(httpReq)
		if err != nil {
			return err
		}

		switch {
		case resp.Status == "1":
			c.logger.Info("contract verified", slog.String("guid", guid), slog.String("result", resp.Result))
			return nil
		case alreadyVerified(resp.Result):
			c.logger.Info("Already Verified!", slog.String("guid", guid))
			return nil
		case strings.Contains(strings.ToLower(resp.Result), "pending"):
			c.logger.Debug("verification pending", slog.String("guid", guid), slog.Int("attempt", attempt))
		default:
			return apperrors.NewVerificationError(resp.Result)
		}
	}
	return apperrors.NewVerificationError(fmt.Sprintf("still pending after %d checks (guid %s)", c.maxAttempts, guid))
}

func (c *Client) endpoint(chainID int64, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	q.Set("chainid", strconv.FormatInt(chainID, 10))
	sep := "?"
	if strings.Contains(c.apiURL, "?") {
		sep = "&"
	}
	return c.apiURL + sep + q.Encode()
}

func (c *Client) do(req *http.Request) (*apiResponse, error) {
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("etherscan request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read etherscan response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("etherscan returned status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(body)))
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse etherscan response: %w", err)
	}
	return &resp, nil
}

func compilerVersion(v string) string {
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
