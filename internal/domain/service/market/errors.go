package market

import "errors"

var errNullPayout = errors.New("payout is null")
