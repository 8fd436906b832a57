package httpx

import "context"

// StaticToken is an authenticator for services that issue a long-lived API
// token instead of a login flow.
type StaticToken struct {
	token string
}

func NewStaticToken(token string) StaticToken {
	return StaticToken{token: token}
}

func (s StaticToken) Authenticate(context.Context) error {
	return nil
}

func (s StaticToken) BearerToken() string {
	return s.token
}
