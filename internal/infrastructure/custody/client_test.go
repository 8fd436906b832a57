package custody_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"nft_market/internal/infrastructure/custody"
	"nft_market/pkg/contextx"
)

func TestClient(t *testing.T) {
	rq := require.New(t)

	type call struct {
		path    string
		body    string
		traceID string
	}

	var calls []call

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, call{path: r.URL.Path, body: string(body), traceID: r.Header.Get("X-Trace-Id")})

		switch r.URL.Path {
		case "/v1/nft/transfer-payout":
			_, _ = w.Write([]byte(`{"alice.near":"1000"}`))
		case "/v1/ft/transfer":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"code":"NotEnoughBalance"}`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	client := custody.NewClient(server.URL+"/", server.Client())
	ctx := contextx.WithTraceID(context.Background(), "trace-1")

	payload, err := client.TransferWithPayout(ctx, custody.PayoutTransfer{
		ContractID: "nft.near",
		TokenID:    "42",
		ReceiverID: "bob.near",
		ApprovalID: 3,
		Balance:    decimal.NewFromInt(1000),
	})
	rq.NoError(err)
	rq.JSONEq(`{"alice.near":"1000"}`, string(payload))

	err = client.TransferToken(ctx, "usdc.near", "alice.near", decimal.NewFromInt(5))
	rq.ErrorIs(err, custody.ErrTransferRejected)

	rq.NoError(client.TransferNative(ctx, "bob.near", decimal.NewFromInt(7)))

	rq.Len(calls, 3)
	rq.JSONEq(
		`{"contractId":"nft.near","tokenId":"42","receiverId":"bob.near","approvalId":3,"balance":"1000"}`,
		calls[0].body,
	)
	rq.JSONEq(`{"contractId":"usdc.near","receiverId":"alice.near","amount":"5"}`, calls[1].body)
	rq.JSONEq(`{"receiverId":"bob.near","amount":"7"}`, calls[2].body)
	rq.Equal("/v1/native/transfer", calls[2].path)
	rq.Equal("trace-1", calls[0].traceID)
}

func TestClientTransportError(t *testing.T) {
	rq := require.New(t)

	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := custody.NewClient(server.URL, nil)

	_, err := client.TransferWithPayout(context.Background(), custody.PayoutTransfer{})
	rq.Error(err)
	rq.NotErrorIs(err, custody.ErrTransferRejected)
}
