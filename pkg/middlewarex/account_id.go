package middlewarex

import (
	"net/http"
	"strings"

	"nft_market/pkg/contextx"
)

const headerNameAccountID = "X-Account-Id"

// AccountID puts the caller account from the X-Account-Id header into the
// request context. Requests without the header pass through anonymously;
// handlers that need a caller reject them.
func AccountID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID := strings.TrimSpace(r.Header.Get(headerNameAccountID))
		if accountID == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := contextx.WithAccountID(r.Context(), contextx.AccountID(accountID))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
