package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"github.com/go-resty/resty/v2"

	"github.com/DHyde226/solana-ai-analytics/pkg/config"
)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
	ID      int             `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SignatureInfo is one entry of a getSignaturesForAddress page.
type SignatureInfo struct {
	Signature string `json:"signature"`
	BlockTime int64  `json:"blockTime"`
	Slot      uint64 `json:"slot"`
}

// Client talks JSON-RPC to a Solana node (Helius by default). Transaction
// payloads are kept as raw JSON so the full jsonParsed shape survives into
// the store.
type Client struct {
	http   *resty.Client
	rpcURL string
}

func NewClient(cfg *config.Config) *Client {
	url := cfg.RPCURL
	if cfg.HeliusAPIKey != "" {
		url = fmt.Sprintf("%s/?api-key=%s", cfg.RPCURL, cfg.HeliusAPIKey)
	}
	return &Client{
		http: resty.New().
			SetTimeout(30 * time.Second).
			SetRetryCount(3),
		rpcURL: url,
	}
}

// FeedAddress resolves the address whose signature feed seeds the corpus.
// Defaults to the system program (a global firehose); overrides must be
// valid base58 public keys.
func FeedAddress(cfg *config.Config) (string, error) {
	if cfg.FeedAddress == "" {
		return sol.SystemProgramID.String(), nil
	}
	pk, err := sol.PublicKeyFromBase58(cfg.FeedAddress)
	if err != nil {
		return "", fmt.Errorf("invalid FEED_ADDRESS %q: %w", cfg.FeedAddress, err)
	}
	return pk.String(), nil
}

func (c *Client) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1}).
		Post(c.rpcURL)
	if err != nil {
		return nil, fmt.Errorf("rpc %s: %w", method, err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(resp.Body(), &rpcResp); err != nil {
		return nil, fmt.Errorf("rpc %s unmarshal: %w", method, err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc %s error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

// GetSignatures fetches one page of recent transaction signatures for an
// address, paginating backwards when before is set.
func (c *Client) GetSignatures(ctx context.Context, address string, limit int, before string) ([]SignatureInfo, error) {
	opts := map[string]interface{}{"limit": limit}
	if before != "" {
		opts["before"] = before
	}
	result, err := c.call(ctx, "getSignaturesForAddress", []interface{}{address, opts})
	if err != nil {
		return nil, err
	}

	var sigs []SignatureInfo
	if err := json.Unmarshal(result, &sigs); err != nil {
		return nil, fmt.Errorf("signatures unmarshal: %w", err)
	}
	return sigs, nil
}

// GetTransaction fetches full jsonParsed transaction details by signature.
// A null result (pruned or unknown signature) returns nil with no error.
func (c *Client) GetTransaction(ctx context.Context, signature string) (json.RawMessage, error) {
	result, err := c.call(ctx, "getTransaction", []interface{}{
		signature,
		map[string]interface{}{"encoding": "jsonParsed", "maxSupportedTransactionVersion": 0},
	})
	if err != nil {
		return nil, err
	}
	if string(result) == "null" {
		return nil, nil
	}
	return result, nil
}
