package logx_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nft_auction/pkg/logx"
)

func TestSensitiveDataMaskerMask(t *testing.T) {
	rq := require.New(t)

	masker := logx.NewSensitiveDataMasker("recipient")

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
			name:   "Token address is kept",
			input:  []byte(`{"token":"0x00000000000000000000000000000000000000aa","amount":"5"}`),
			output: []byte(`{"token":"0x00000000000000000000000000000000000000aa","amount":"5"}`),
		},
		{
			name:   "Bot token in URL",
			input:  []byte("POST /bot123456:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw/sendMessage HTTP/1.1"),
			output: []byte("POST /bot[MASKED]/sendMessage HTTP/1.1"),
		},
		{
			name:   "Configured field",
			input:  []byte(`{"currency":"native", "recipient": "0x00000000000000000000000000000000000000bb"}`),
			output: []byte(`{"currency":"native", "recipient": "[MASKED]"}`),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			output := masker.Mask(tc.input)

			rq.Equal(tc.output, output, "%s vs %s", tc.output, output)
		})
	}
}
