package middlewarex_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"nft_auction/pkg/contextx"
	"nft_auction/pkg/logx"
	"nft_auction/pkg/middlewarex"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

func newLogger() (*bytes.Buffer, context.Context) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return &buf, contextx.WithLogger(context.Background(), logger)
}

func TestTraceIDAndLogger(t *testing.T) {
	rq := require.New(t)

	buf, ctx := newLogger()

	h := middlewarex.TraceID(middlewarex.Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contextx.LoggerFromContextOrDefault(r.Context()).Info("handled")
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequestWithContext(ctx, http.MethodGet, "/v1/auctions/0", http.NoBody)
	req.Header.Set("X-Trace-Id", "trace-1")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	rq.Equal(http.StatusNoContent, rec.Code)
	rq.Equal("trace-1", rec.Header().Get("X-Trace-Id"))

	var line map[string]any
	rq.NoError(json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	rq.Equal("trace-1", line[logx.FieldTraceID])
	rq.Equal("/v1/auctions/0", line[logx.FieldURL])
	rq.Equal(http.MethodGet, line[logx.FieldHTTPMethod])
}

func TestTraceID_Generated(t *testing.T) {
	rq := require.New(t)

	h := middlewarex.TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID, err := contextx.TraceIDFromContext(r.Context())
		rq.NoError(err)
		rq.NotEmpty(traceID.String())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	rq.Len(rec.Header().Get("X-Trace-Id"), 20)
}

func TestRecovery(t *testing.T) {
	rq := require.New(t)

	_, ctx := newLogger()

	h := middlewarex.TraceID(middlewarex.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequestWithContext(ctx, http.MethodPost, "/v1/auctions", http.NoBody)
	req.Header.Set("X-Trace-Id", "trace-2")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	rq.Equal(http.StatusInternalServerError, rec.Code)

	var body map[string]string
	rq.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	rq.Equal("InternalServerError", body["code"])
	rq.Equal("internal server error", body["message"])
	rq.Equal("trace-2", body["supportId"])
}

func TestLogging_SkipsWebsocketUpgrade(t *testing.T) {
	rq := require.New(t)

	buf, ctx := newLogger()
	masker := logx.NewSensitiveDataMasker()

	h := middlewarex.RequestLogging(masker, 1024)(middlewarex.ResponseLogging(masker, 1024)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"password":"secret"}`))
		}),
	))

	req := httptest.NewRequestWithContext(ctx, http.MethodGet, "/v1/auctions/0/stream", http.NoBody)
	req.Header.Set("Upgrade", "websocket")
	h.ServeHTTP(httptest.NewRecorder(), req)

	rq.Zero(buf.Len())

	req = httptest.NewRequestWithContext(ctx, http.MethodGet, "/v1/auctions/0", http.NoBody)
	h.ServeHTTP(httptest.NewRecorder(), req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	rq.Len(lines, 2)
	rq.Contains(lines[1], `[MASKED]`)
	rq.NotContains(lines[1], "secret")
}

func TestAuthenticate(t *testing.T) {
	auth := middlewarex.Authenticate(map[string]contextx.UserID{
		"alice-token": "0x00000000000000000000000000000000000000A1",
	})

	h := auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := contextx.UserIDFromContext(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.Write([]byte(userID.String()))
	}))

	testCases := []struct {
		name   string
		header string
		status int
		caller string
	}{
		{name: "valid token", header: "Bearer alice-token", status: http.StatusOK, caller: "0x00000000000000000000000000000000000000A1"},
		{name: "no header", header: "", status: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer mallory-token", status: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic alice-token", status: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			req := httptest.NewRequest(http.MethodPost, "/v1/auctions", http.NoBody)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			req.Header.Set("X-Caller", "0x00000000000000000000000000000000000000E5")
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			rq.Equal(tc.status, rec.Code)
			if tc.status == http.StatusOK {
				rq.Equal(tc.caller, rec.Body.String())
				return
			}

			var body map[string]string
			rq.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
			rq.Equal("Unauthorized", body["code"])
		})
	}
}

func TestAuthenticate_NoTokensRejectsAll(t *testing.T) {
	rq := require.New(t)

	h := middlewarex.Authenticate(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		rq.Fail("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/auctions", http.NoBody)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	rq.Equal(http.StatusUnauthorized, rec.Code)
}
