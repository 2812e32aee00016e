package processors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const valetBody = `{
  "observations": [
    {"d": "2024-03-04", "FXUSDCAD": {"v": "1.3500"}},
    {"d": "2024-03-05", "FXUSDCAD": {"v": "1.3600"}},
    {"d": "2024-03-06", "FXUSDCAD": {"v": ""}}
  ]
}`

func newValetServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		switch {
		case strings.HasSuffix(r.URL.Path, "/FXUSDCAD/json"):
			q := r.URL.Query()
			if q.Get("start_date") != "2024-03-01" || q.Get("end_date") != "2024-03-07" {
				http.Error(w, "unexpected date range", http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(valetBody))
		case strings.HasSuffix(r.URL.Path, "/FXEURCAD/json"):
			_, _ = w.Write([]byte(`{"observations": [{"d": "2024-03-07", "FXEURCAD": {"v": "1.4850"}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

var rateDate = time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

func TestExchangeRateCarriesBack(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := newValetServer(t, &calls)
	p := NewExchangeRateProcessor("cad", srv.Client()).WithValetURL(srv.URL)

	rate, err := p.GetExchangeRate(context.Background(), "usd", rateDate)
	require.NoError(t, err)
	require.True(t, rate.Equal(dec("1.36")), "rate %s", rate)

	// Cached.
	_, err = p.GetExchangeRate(context.Background(), "USD", rateDate)
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestExchangeRateSameCurrency(t *testing.T) {
	t.Parallel()
	p := NewExchangeRateProcessor("CAD", nil).WithValetURL("http://127.0.0.1:0")
	rate, err := p.GetExchangeRate(context.Background(), "CAD", rateDate)
	require.NoError(t, err)
	require.True(t, rate.Equal(dec("1")))
	require.Equal(t, "CAD", p.BaseCurrency())
}

func TestExchangeRateCrossesThroughCAD(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := newValetServer(t, &calls)
	p := NewExchangeRateProcessor("USD", srv.Client()).WithValetURL(srv.URL)

	eurToUSD, err := p.GetExchangeRate(context.Background(), "EUR", rateDate)
	require.NoError(t, err)
	require.True(t, eurToUSD.Equal(dec("1.485").Div(dec("1.36"))))

	cadToUSD, err := p.GetExchangeRate(context.Background(), "CAD", rateDate)
	require.NoError(t, err)
	require.True(t, cadToUSD.Equal(dec("1").Div(dec("1.36"))))
}

func TestExchangeRateUnknownSeries(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := newValetServer(t, &calls)
	p := NewExchangeRateProcessor("CAD", srv.Client()).WithValetURL(srv.URL)
	_, err := p.GetExchangeRate(context.Background(), "XYZ", rateDate)
	require.Error(t, err)
}
