package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Nakshatra-thange/smooth/internal/domain"
)

const tokenProgram = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// RPCGateway implementa Gateway contra un nodo Solana via JSON-RPC.
type RPCGateway struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

func NewRPCGateway(endpoint string, logger *zap.Logger) *RPCGateway {
	return &RPCGateway{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 20 * time.Second},
		logger:   logger,
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (g *RPCGateway) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrUpstream, method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s response: %v", domain.ErrUpstream, method, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %s status=%d", domain.ErrUpstream, method, resp.StatusCode)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("%w: unmarshal %s response: %v", domain.ErrUpstream, method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%w: %s: %s", domain.ErrUpstream, method, envelope.Error.Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("%w: decode %s result: %v", domain.ErrUpstream, method, err)
		}
	}
	return nil
}

func (g *RPCGateway) GetBalance(ctx context.Context, address string) (Balance, error) {
	if _, err := DecodeAddress(address); err != nil {
		return Balance{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	var lamports struct {
		Value int64 `json:"value"`
	}
	if err := g.call(ctx, "getBalance", []interface{}{address}, &lamports); err != nil {
		return Balance{}, err
	}

	var accounts struct {
		Value []struct {
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							Mint        string `json:"mint"`
							TokenAmount struct {
								UIAmount *float64 `json:"uiAmount"`
								Decimals int      `json:"decimals"`
							} `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	}
	err := g.call(ctx, "getTokenAccountsByOwner", []interface{}{
		address,
		map[string]string{"programId": tokenProgram},
		map[string]string{"encoding": "jsonParsed"},
	}, &accounts)
	if err != nil {
		// El balance nativo ya se obtuvo; los tokens son best-effort.
		g.logger.Warn("token accounts fetch failed", zap.String("address", address), zap.Error(err))
	}

	balance := Balance{Lamports: lamports.Value}
	for _, acc := range accounts.Value {
		info := acc.Account.Data.Parsed.Info
		if info.TokenAmount.UIAmount == nil || *info.TokenAmount.UIAmount == 0 {
			continue
		}
		symbol := info.Mint
		if len(symbol) > 4 {
			symbol = symbol[:4]
		}
		balance.Tokens = append(balance.Tokens, domain.TokenBalance{
			Mint:     info.Mint,
			Symbol:   symbol,
			Amount:   *info.TokenAmount.UIAmount,
			Decimals: info.TokenAmount.Decimals,
		})
	}
	return balance, nil
}

func (g *RPCGateway) BuildTransfer(ctx context.Context, from, to string, lamports int64, memo string) (TransferArtifact, error) {
	fromKey, err := DecodeAddress(from)
	if err != nil {
		return TransferArtifact{}, fmt.Errorf("%w: from: %v", domain.ErrInvalidInput, err)
	}
	toKey, err := DecodeAddress(to)
	if err != nil {
		return TransferArtifact{}, fmt.Errorf("%w: to: %v", domain.ErrInvalidInput, err)
	}

	var latest struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := g.call(ctx, "getLatestBlockhash", nil, &latest); err != nil {
		return TransferArtifact{}, err
	}
	blockhash, err := DecodeAddress(latest.Value.Blockhash)
	if err != nil {
		return TransferArtifact{}, fmt.Errorf("%w: bad blockhash from rpc", domain.ErrUpstream)
	}

	message := buildTransferMessage(fromKey, toKey, lamports, memo, blockhash)

	var fee struct {
		Value *int64 `json:"value"`
	}
	feeErr := g.call(ctx, "getFeeForMessage", []interface{}{
		base64.StdEncoding.EncodeToString(message),
		map[string]string{"commitment": "confirmed"},
	}, &fee)
	if feeErr != nil {
		g.logger.Warn("fee estimation failed", zap.Error(feeErr))
	}

	return TransferArtifact{
		UnsignedTx:   wrapUnsigned(message),
		EstimatedFee: fee.Value,
	}, nil
}

func (g *RPCGateway) SubmitSigned(ctx context.Context, signedTxBase64 string) (string, error) {
	if _, err := base64.StdEncoding.DecodeString(signedTxBase64); err != nil {
		return "", fmt.Errorf("%w: signed transaction is not base64", domain.ErrInvalidInput)
	}

	var signature string
	err := g.call(ctx, "sendTransaction", []interface{}{
		signedTxBase64,
		map[string]interface{}{
			"encoding":            "base64",
			"preflightCommitment": "confirmed",
			"maxRetries":          3,
		},
	}, &signature)
	if err != nil {
		return "", err
	}
	return signature, nil
}

func (g *RPCGateway) SignatureStatus(ctx context.Context, signature string) (ConfirmationStatus, error) {
	var statuses struct {
		Value []*struct {
			Slot               int64           `json:"slot"`
			ConfirmationStatus string          `json:"confirmationStatus"`
			Err                json.RawMessage `json:"err"`
		} `json:"value"`
	}
	err := g.call(ctx, "getSignatureStatuses", []interface{}{
		[]string{signature},
		map[string]bool{"searchTransactionHistory": true},
	}, &statuses)
	if err != nil {
		return ConfirmationStatus{}, err
	}
	if len(statuses.Value) == 0 || statuses.Value[0] == nil {
		return ConfirmationStatus{}, nil
	}

	entry := statuses.Value[0]
	if len(entry.Err) > 0 && string(entry.Err) != "null" {
		return ConfirmationStatus{
			Finalized: true,
			Succeeded: false,
			Err:       string(entry.Err),
			Slot:      entry.Slot,
		}, nil
	}
	if entry.ConfirmationStatus != "finalized" {
		return ConfirmationStatus{}, nil
	}

	status := ConfirmationStatus{Finalized: true, Succeeded: true, Slot: entry.Slot}

	var tx struct {
		Slot      int64  `json:"slot"`
		BlockTime *int64 `json:"blockTime"`
	}
	if err := g.call(ctx, "getTransaction", []interface{}{
		signature,
		map[string]interface{}{"maxSupportedTransactionVersion": 0},
	}, &tx); err == nil && tx.BlockTime != nil {
		at := time.Unix(*tx.BlockTime, 0).UTC()
		status.BlockTime = &at
		if tx.Slot != 0 {
			status.Slot = tx.Slot
		}
	}
	return status, nil
}

func (g *RPCGateway) RecentActivity(ctx context.Context, address string, limit int) ([]ActivityItem, error) {
	var sigs []struct {
		Signature string          `json:"signature"`
		Slot      int64           `json:"slot"`
		BlockTime *int64          `json:"blockTime"`
		Err       json.RawMessage `json:"err"`
	}
	err := g.call(ctx, "getSignaturesForAddress", []interface{}{
		address,
		map[string]int{"limit": limit},
	}, &sigs)
	if err != nil {
		return nil, err
	}

	items := make([]ActivityItem, 0, len(sigs))
	for _, sig := range sigs {
		item := ActivityItem{
			Signature: sig.Signature,
			Slot:      sig.Slot,
			Failed:    len(sig.Err) > 0 && string(sig.Err) != "null",
		}
		if sig.BlockTime != nil {
			at := time.Unix(*sig.BlockTime, 0).UTC()
			item.BlockTime = &at
		}
		items = append(items, item)
	}
	return items, nil
}
