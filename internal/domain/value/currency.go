package value

// Currency is either the chain's native unit or the account of a fungible
// token contract.
type Currency string

// NativeCurrency is the sentinel under which native prices are stored.
const NativeCurrency Currency = "near"

func (c Currency) String() string {
	return string(c)
}

func (c Currency) IsNative() bool {
	return c == NativeCurrency
}

// TokenContract returns the fungible token contract for non-native currencies.
func (c Currency) TokenContract() AccountID {
	return AccountID(c)
}

// CurrencyOrNative maps an absent currency to NativeCurrency.
func CurrencyOrNative(c *string) Currency {
	if c == nil || *c == "" {
		return NativeCurrency
	}

	return Currency(*c)
}
