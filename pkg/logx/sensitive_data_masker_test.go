package logx_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nft_market/pkg/logx"
)

func TestSensitiveDataMaskerMask(t *testing.T) {
	rq := require.New(t)

	masker := logx.NewSensitiveDataMasker()

	testCases := []struct {
		name   string
		input  []byte
		output []byte
	}{
		{
			name:   "Password",
			input:  []byte(`{"hello":"world","password":"abc123"}`),
			output: []byte(`{"hello":"world","password":"[MASKED]"}`),
		},
		{
			name:   "Password capital letter",
			input:  []byte(`{"hello":"world","Password":"abc123"}`),
			output: []byte(`{"hello":"world","Password":"[MASKED]"}`),
		},
		{
			name:   "Api key and bot token",
			input:  []byte(`{"apiKey":"k-123","botToken":"123:abc"}`),
			output: []byte(`{"apiKey":"[MASKED]","botToken":"[MASKED]"}`),
		},
		{
			name:   "Bearer header",
			input:  []byte("POST /v1/ft/transfer HTTP/1.1\r\nAuthorization: Bearer secret\r\n"),
			output: []byte("POST /v1/ft/transfer HTTP/1.1\r\nAuthorization: Bearer [MASKED]\r\n"),
		},
		{
			name:   "Sale payload untouched",
			input:  []byte(`{"ownerId":"alice.near","approvalId":7}`),
			output: []byte(`{"ownerId":"alice.near","approvalId":7}`),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			output := masker.Mask(tc.input)

			rq.Equal(tc.output, output, "%s vs %s", tc.output, output)
		})
	}
}
