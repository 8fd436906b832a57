package value

// AccountID identifies an account on the chain: sellers, buyers, payout
// receivers and fungible-token contracts alike.
type AccountID string

func (a AccountID) String() string {
	return string(a)
}
