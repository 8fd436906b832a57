// Package custody talks to the asset custody service that moves NFTs,
// fungible tokens and native balance on the market's behalf.
package custody

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"nft_market/internal/domain/value"
	"nft_market/pkg/contextx"
	"nft_market/pkg/logx"
)

const (
	pathTransferPayout = "/v1/nft/transfer-payout"
	pathTransferToken  = "/v1/ft/transfer"
	pathTransferNative = "/v1/native/transfer"

	maxErrorBodyLen = 512
)

var (
	json   = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals
	logger = contextx.LoggerFromContextOrDefault          //nolint:gochecknoglobals
)

var ErrTransferRejected = errors.New("custody rejected the transfer")

// PayoutTransfer asks the collection to move an asset to the receiver and to
// report how balance is split among royalty receivers.
type PayoutTransfer struct {
	ContractID string          `json:"contractId"`
	TokenID    string          `json:"tokenId"`
	ReceiverID value.AccountID `json:"receiverId"`
	ApprovalID uint64          `json:"approvalId"`
	Balance    decimal.Decimal `json:"balance"`
}

type tokenTransfer struct {
	ContractID value.AccountID `json:"contractId"`
	ReceiverID value.AccountID `json:"receiverId"`
	Amount     decimal.Decimal `json:"amount"`
}

type nativeTransfer struct {
	ReceiverID value.AccountID `json:"receiverId"`
	Amount     decimal.Decimal `json:"amount"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// TransferWithPayout returns the raw payout payload of a successful transfer.
// Any non-2xx answer is ErrTransferRejected.
func (c *Client) TransferWithPayout(ctx context.Context, transfer PayoutTransfer) ([]byte, error) {
	payload, err := c.post(ctx, pathTransferPayout, transfer)
	if err != nil {
		return nil, err
	}

	return payload, nil
}

func (c *Client) TransferToken(ctx context.Context, contract, receiver value.AccountID, amount decimal.Decimal) error {
	_, err := c.post(ctx, pathTransferToken, tokenTransfer{
		ContractID: contract,
		ReceiverID: receiver,
		Amount:     amount,
	})

	return err
}

func (c *Client) TransferNative(ctx context.Context, receiver value.AccountID, amount decimal.Decimal) error {
	_, err := c.post(ctx, pathTransferNative, nativeTransfer{
		ReceiverID: receiver,
		Amount:     amount,
	})

	return err
}

func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if traceID, err := contextx.TraceIDFromContext(ctx); err == nil {
		req.Header.Set("X-Trace-Id", traceID.String())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpClient.Do: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if len(respBody) > maxErrorBodyLen {
			respBody = respBody[:maxErrorBodyLen]
		}

		logger(ctx).Warn("custody request rejected",
			slog.String(logx.FieldURL, path),
			slog.Int(logx.FieldResponseStatus, resp.StatusCode),
			slog.String(logx.FieldResponseBody, string(respBody)),
		)

		return nil, fmt.Errorf("%w: %s", ErrTransferRejected, resp.Status)
	}

	return respBody, nil
}
