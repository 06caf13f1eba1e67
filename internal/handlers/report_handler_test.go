package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shaibs3/uniload/internal/db"
	"github.com/shaibs3/uniload/internal/db_model"
	"github.com/shaibs3/uniload/internal/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seededProvider(t *testing.T) *storage.InMemoryProvider {
	t.Helper()
	ctx := context.Background()
	p := storage.NewInMemoryProvider()
	seed := map[string][]string{
		"Brazil": {"Universidade de SaoPaulo", "Universidade Federal do Rio de Janeiro", "PUC-Rio"},
		"Chile":  {"Universidad de Chile"},
	}
	for country, names := range seed {
		id, err := p.GetOrCreateCountry(ctx, country)
		require.NoError(t, err)
		for _, name := range names {
			_, err := p.InsertUniversity(ctx, db_model.University{Name: name, CountryID: id})
			require.NoError(t, err)
		}
	}
	_, err := p.GetOrCreateCountry(ctx, "Atlantis")
	require.NoError(t, err)
	return p
}

func setupReportRouter(t *testing.T) *mux.Router {
	r := mux.NewRouter()
	NewReportHandler(seededProvider(t)).RegisterRoutes(r, zap.NewNop())
	return r
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestReportHandler_Countries(t *testing.T) {
	w := serve(setupReportRouter(t), http.MethodGet, "/countries")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		Countries []db.CountryTotal `json:"countries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Countries, 3)
	require.Equal(t, "Brazil", resp.Countries[0].Country)
	require.EqualValues(t, 3, resp.Countries[0].Total)
	require.Equal(t, "Chile", resp.Countries[1].Country)
	require.Equal(t, "Atlantis", resp.Countries[2].Country)
	require.Zero(t, resp.Countries[2].Total)
}

func TestReportHandler_CountryUniversities(t *testing.T) {
	r := setupReportRouter(t)

	w := serve(r, http.MethodGet, "/countries/Brazil/universities?limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Country      string               `json:"country"`
		Universities []db.UniversityMatch `json:"universities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "Brazil", resp.Country)
	require.Len(t, resp.Universities, 2)
	require.Equal(t, "PUC-Rio", resp.Universities[0].Name)

	w = serve(r, http.MethodGet, "/countries/Narnia/universities")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"country":"Narnia","universities":[]}`, w.Body.String())
}

func TestReportHandler_Search(t *testing.T) {
	r := setupReportRouter(t)

	w := serve(r, http.MethodGet, "/universities?q=UNIVERSIDAD")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Universities []db.UniversityMatch `json:"universities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// "Universidade" contains "Universidad" as well
	require.Len(t, resp.Universities, 3)
	for _, u := range resp.Universities {
		require.NotEmpty(t, u.Country)
	}

	w = serve(r, http.MethodGet, "/universities")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandler_InvalidLimit(t *testing.T) {
	r := setupReportRouter(t)
	for _, target := range []string{
		"/universities?q=rio&limit=abc",
		"/universities?q=rio&limit=0",
		"/countries/Brazil/universities?limit=-3",
		"/countries/Brazil/universities?limit=100000",
	} {
		w := serve(r, http.MethodGet, target)
		require.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}
