package httpx_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"nft_auction/pkg/contextx"
	"nft_auction/pkg/httpx"
	"nft_auction/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const rpcRequest = `{"jsonrpc":"2.0","id":1,"method":"eth_call","params":[]}`

func TestLoggingRoundTripper(t *testing.T) {
	const testResponseBody = `{"jsonrpc":"2.0","id":1,"result":"0x08","password":"qwerty"}`

	testCases := []struct {
		name           string
		handlerFunc    http.HandlerFunc
		method         string
		body           string
		statusCode     int
		responseBody   string
		masker         httpx.Option
		logFieldMaxLen int
		check          func(rq *require.Assertions, req, resp map[string]any)
	}{
		{
			name: "Status 200",
			handlerFunc: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}),
			method: http.MethodGet,
			check: func(rq *require.Assertions, req, resp map[string]any) {
				rq.Contains(req[logx.FieldRequestBody], "GET / HTTP/1.1")
				rq.Contains(resp[logx.FieldResponseBody], "HTTP/1.1 200 OK")
				rq.NotContains(req, logx.FieldRPCMethod)
			},
			statusCode: http.StatusOK,
		},
		{
			name: "Status 404",
			handlerFunc: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(testResponseBody))
			}),
			method: http.MethodGet,
			check: func(rq *require.Assertions, req, resp map[string]any) {
				rq.Contains(resp[logx.FieldResponseBody], "HTTP/1.1 404 Not Found")
				rq.Contains(resp[logx.FieldResponseBody], testResponseBody)
			},
			statusCode:   http.StatusNotFound,
			responseBody: testResponseBody,
		},
		{
			name: "JSON-RPC call is masked and named",
			handlerFunc: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(testResponseBody))
			}),
			method: http.MethodPost,
			body:   rpcRequest,
			check: func(rq *require.Assertions, req, resp map[string]any) {
				rq.Equal("eth_call", req[logx.FieldRPCMethod])
				rq.Equal("eth_call", resp[logx.FieldRPCMethod])
				rq.Contains(req[logx.FieldRequestBody], rpcRequest)
				rq.Contains(resp[logx.FieldResponseBody], `"password":"[MASKED]"`)
			},
			statusCode:   http.StatusOK,
			responseBody: testResponseBody,
			masker:       httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker()),
		},
		{
			name: "Status 200 (with log field size limit)",
			handlerFunc: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(testResponseBody))
			}),
			method: http.MethodGet,
			check: func(rq *require.Assertions, req, resp map[string]any) {
				rq.Equal("GET / HTTP", req[logx.FieldRequestBody])
				rq.Equal("HTTP/1.1 2", resp[logx.FieldResponseBody])
			},
			statusCode:     http.StatusOK,
			responseBody:   testResponseBody,
			logFieldMaxLen: 10,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			httpServer := httptest.NewServer(tc.handlerFunc)
			defer httpServer.Close()

			var buf bytes.Buffer

			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			ctx := contextx.WithLogger(context.Background(), logger)

			var opts []httpx.Option

			if tc.masker != nil {
				opts = append(opts, tc.masker)
			}

			if tc.logFieldMaxLen != 0 {
				opts = append(opts, httpx.WithLogFieldMaxLen(tc.logFieldMaxLen))
			}

			client := &http.Client{
				Transport: httpx.NewLoggingRoundTripper(
					http.DefaultTransport,
					opts...,
				),
			}

			var body io.Reader = http.NoBody
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}

			req, err := http.NewRequestWithContext(ctx, tc.method, httpServer.URL, body)
			rq.NoError(err)

			resp, err := client.Do(req)
			rq.NoError(err)

			defer resp.Body.Close()

			logLines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))

			rq.Equal(tc.statusCode, resp.StatusCode)
			rq.Len(logLines, 2)

			var request, response map[string]any

			rq.NoError(json.Unmarshal(logLines[0], &request))
			rq.NoError(json.Unmarshal(logLines[1], &response))

			tc.check(rq, request, response)

			_, ok := response[logx.FieldDurationMs].(float64)
			rq.True(ok)

			const xidLen = 20

			rq.Len(request[logx.FieldRequestID], xidLen)
			rq.Equal(request[logx.FieldRequestID], response[logx.FieldRequestID])

			if tc.responseBody != "" {
				bodyBytes, err := io.ReadAll(resp.Body)
				rq.NoError(err)

				rq.Equal(tc.responseBody, string(bodyBytes))
			}
		})
	}
}

type rotatingToken struct {
	tokens []string
	calls  int
}

func (a *rotatingToken) Authenticate(context.Context) error {
	a.calls++
	return nil
}

func (a *rotatingToken) BearerToken() string {
	if a.calls == 0 {
		return ""
	}
	return a.tokens[min(a.calls, len(a.tokens))-1]
}

func TestAuthBearerRoundTripper_RetriesWithBody(t *testing.T) {
	rq := require.New(t)

	var seen []string

	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = append(seen, r.Header.Get("Authorization")+" "+string(body))

		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer httpServer.Close()

	auth := &rotatingToken{tokens: []string{"stale", "fresh"}}
	client := &http.Client{Transport: httpx.NewAuthBearerRoundTripper(http.DefaultTransport, auth)}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, httpServer.URL, strings.NewReader(rpcRequest))
	rq.NoError(err)

	resp, err := client.Do(req)
	rq.NoError(err)
	defer resp.Body.Close()

	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.Equal(2, auth.calls)
	rq.Equal([]string{"Bearer stale " + rpcRequest, "Bearer fresh " + rpcRequest}, seen)
	rq.Empty(req.Header.Get("Authorization"))
}
