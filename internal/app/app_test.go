package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shaibs3/uniload/internal/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(sourceURL string) *config.Config {
	return &config.Config{
		Environment:   "development",
		LogLevel:      "debug",
		Port:          "0",
		DBConfig:      `{"db_type":"sqlite","extra_details":{"conn_str":":memory:"}}`,
		SourceURL:     sourceURL,
		Countries:     []string{"Brazil", "Chile"},
		HTTPTimeout:   5 * time.Second,
		FetchAttempts: 1,
		FetchBackoff:  time.Millisecond,
		FetchRPS:      100,
		RPSLimit:      100,
		RPSBurst:      100,
	}
}

func directory(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("country") {
		case "Brazil":
			_, _ = w.Write([]byte(`[{"name":"Universidade de SaoPaulo","country":"Brazil","alpha_two_code":"BR",
				"state-province":"SP","domains":["usp.br"],"web_pages":["http://www.usp.br/"]}]`))
		case "Chile":
			_, _ = w.Write([]byte(`[{"name":"Universidad de Chile","country":"Chile","alpha_two_code":"CL",
				"state-province":null,"domains":["uchile.cl"],"web_pages":["https://uchile.cl"]}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestApp_LoadAndReport(t *testing.T) {
	srv := directory(t)
	ctx := context.Background()

	a, err := NewApp(ctx, testConfig(srv.URL), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	summary, err := a.Load(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Inserted)
	require.Len(t, summary.Countries, 2)

	totals, err := a.Reports().CountryTotals(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/universities?q=chile", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Universidad de Chile")
}

func TestApp_LoadOverHTTP(t *testing.T) {
	srv := directory(t)
	ctx := context.Background()

	a, err := NewApp(ctx, testConfig(srv.URL), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	h := a.Handler()
	for i, want := range []string{`"inserted":1`, `"duplicates":1`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/load", strings.NewReader(`{"countries":["Brazil"]}`))
		h.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, "run %d", i)
		require.Contains(t, w.Body.String(), want)
	}
}

func TestNewApp_InvalidDBConfig(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.DBConfig = `{"db_type":"oracle"}`
	_, err := NewApp(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}
