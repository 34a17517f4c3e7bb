package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Three sessions, a null holiday bar, and a live bar repeating the last day.
const chartJSON = `{"chart":{"result":[{
	"timestamp":[1741786200,1741872600,1741959000,1742045400,1741982400],
	"indicators":{"quote":[{
		"open":  [98.0, 99.0, 100.0, null, 100.0],
		"high":  [99.5, 100.5, 102.0, null, 103.0],
		"low":   [97.5, 98.5, 99.5, null, 99.5],
		"close": [99.0, 100.0, 101.0, null, 102.5],
		"volume":[1000, 1100, 1200, null, 1500]
	}]}
}],"error":null}}`

func newTestYahoo(t *testing.T, handler http.HandlerFunc) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	f := NewYahooFetcher("", ny)
	f.BaseURL = srv.URL
	f.Client = srv.Client()
	return f
}

func TestYahooFetcher_FetchDailyBars(t *testing.T) {
	var gotPath, gotRange string
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		w.Write([]byte(chartJSON))
	})

	bars, err := f.FetchDailyBars(context.Background(), "WMT", 400)
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/WMT", gotPath)
	assert.Equal(t, "2y", gotRange)

	require.Len(t, bars, 3)
	assert.Equal(t, "2025-03-12", bars[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2025-03-14", bars[2].Date.Format("2006-01-02"))
	assert.Equal(t, "America/New_York", bars[2].Date.Location().String())
	// The live bar replaced the earlier row of the same session.
	assert.Equal(t, 102.5, bars[2].Close)
	assert.Equal(t, 1500.0, bars[2].Volume)

	bars, err = f.FetchDailyBars(context.Background(), "WMT", 2)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
}

func TestYahooFetcher_SymbolMap(t *testing.T) {
	var gotPath string
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(chartJSON))
	})
	_, err := f.FetchDailyBars(context.Background(), "SPX", 10)
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/%5EGSPC", gotPath)
}

func TestYahooFetcher_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"http error", http.StatusTooManyRequests, "slow down", "status 429"},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, "No data found"},
		{"empty", http.StatusOK, `{"chart":{"result":[],"error":null}}`, "no data"},
		{"garbage", http.StatusOK, `not json`, "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestYahoo(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := f.FetchDailyBars(context.Background(), "WMT", 10)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestYahooFetcher_ContextCancelled(t *testing.T) {
	f := newTestYahoo(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(chartJSON))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.FetchDailyBars(ctx, "WMT", 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRangeFor(t *testing.T) {
	assert.Equal(t, "1mo", rangeFor(15))
	assert.Equal(t, "1y", rangeFor(250))
	assert.Equal(t, "2y", rangeFor(400))
	assert.Equal(t, "5y", rangeFor(1000))
}
