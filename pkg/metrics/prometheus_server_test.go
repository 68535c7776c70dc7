package metrics_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"nft_auction/pkg/metrics"
)

func TestPrometheusServer(t *testing.T) {
	metrics.ObserveEvent("AuctionCreated")
	metrics.ObserveSettlement("queue", "ended")

	testCases := []struct {
		name          string
		listenAddress string
		endpoint      string
		statusCode    int
		contains      []string
	}{
		{
			name:          "Metrics handler",
			listenAddress: ":10010",
			endpoint:      "http://:10010/metrics",
			statusCode:    http.StatusOK,
			contains: []string{
				`nft_auction_events_total{type="AuctionCreated"} 1`,
				`nft_auction_settlements_total{result="ended",source="queue"} 1`,
				`nft_auction_build_info{name="nft-auction",version="v1.2.3"} 1`,
			},
		},
		{
			name:          "Invalid endpoint",
			listenAddress: ":10020",
			endpoint:      "http://:10020/invalid",
			statusCode:    http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			prometheusServer := metrics.NewPrometheusServer(tc.listenAddress).WithBuildInfo("nft-auction", "v1.2.3")

			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				return prometheusServer.Run(ctx)
			})

			// Wait for server to start.
			time.Sleep(time.Second)

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, tc.endpoint, http.NoBody)
			rq.NoError(err)

			resp, err := http.DefaultClient.Do(req)
			rq.NoError(err)

			body, err := io.ReadAll(resp.Body)
			rq.NoError(err)
			rq.NoError(resp.Body.Close())

			rq.Equal(tc.statusCode, resp.StatusCode)
			for _, want := range tc.contains {
				rq.Contains(string(body), want)
			}

			cancel()

			rq.NoError(g.Wait())
		})
	}
}
