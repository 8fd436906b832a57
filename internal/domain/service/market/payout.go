package market

import (
	"bytes"

	"git.appkode.ru/pub/go/failure"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"nft_market/internal/domain/entity"
	"nft_market/internal/domain/value"
	"nft_market/pkg/errcodes"
)

// MaxPayoutReceivers bounds the number of payout entries a collection may ask
// the market to pay out.
const MaxPayoutReceivers = 8

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

type PayoutVerdict struct {
	Accepted bool
	Payout   entity.Payout
	Reason   failure.ErrorCode
}

func accepted(payout entity.Payout) PayoutVerdict {
	return PayoutVerdict{Accepted: true, Payout: payout}
}

func rejected(reason failure.ErrorCode) PayoutVerdict {
	return PayoutVerdict{Reason: reason}
}

// ValidatePayout decides whether the payout returned by a transfer can be
// honoured. The payload is a JSON object of receiver to amount, amounts being
// strings or numbers. The payout must sum exactly to price.
func ValidatePayout(outcome entity.TransferOutcome, price decimal.Decimal) PayoutVerdict {
	if !outcome.Succeeded {
		return rejected(errcodes.TransferFailed)
	}

	payout, err := parsePayout(outcome.Payload)
	if err != nil {
		return rejected(errcodes.MalformedPayout)
	}

	if len(payout) > MaxPayoutReceivers {
		return rejected(errcodes.TooManyReceivers)
	}

	if !payout.Sum().Equal(price) {
		return rejected(errcodes.PayoutSumMismatch)
	}

	return accepted(payout)
}

func parsePayout(payload []byte) (entity.Payout, error) {
	var raw map[string]jsoniter.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}

	if raw == nil {
		return nil, errNullPayout
	}

	payout := make(entity.Payout, len(raw))

	for receiver, rawAmount := range raw {
		amount, err := parsePayoutAmount(rawAmount)
		if err != nil {
			return nil, err
		}

		payout[value.AccountID(receiver)] = amount
	}

	return payout, nil
}

func parsePayoutAmount(raw jsoniter.RawMessage) (decimal.Decimal, error) {
	text := string(bytes.TrimSpace(raw))

	if len(text) > 0 && text[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, err
		}
	}

	return value.ParseAmount(text)
}
