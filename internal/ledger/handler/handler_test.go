package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-ledger-service/internal/auth"
	"github.com/fekuna/omnipos-ledger-service/internal/ledger/store"
	"github.com/fekuna/omnipos-ledger-service/internal/ledger/usecase"
	"github.com/fekuna/omnipos-ledger-service/internal/server"
	"github.com/fekuna/omnipos-ledger-service/pkg/logger"
)

const owner = "owner-1"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	uc := usecase.NewLedgerUseCase(usecase.Config{
		Repo:         store.NewMemory(),
		Policy:       auth.OwnerPolicy{Owner: owner},
		Logger:       logger.NewNop(),
		ReturnWindow: 72 * time.Hour,
	})

	mux := http.NewServeMux()
	NewLedgerHandler(uc, nil, logger.NewNop()).Register(mux)

	srv := httptest.NewServer(server.CallerMiddleware(mux))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, caller string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if caller != "" {
		req.Header.Set(server.CallerHeader, caller)
	}
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decodeBody(t *testing.T, res *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(res.Body).Decode(v))
}

func errorKind(t *testing.T, res *http.Response) string {
	t.Helper()
	var body struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	decodeBody(t, res, &body)
	return body.Error.Kind
}

func TestAddStockEndpoint(t *testing.T) {
	t.Run("OwnerCreatesThenRestocks", func(t *testing.T) {
		srv := newTestServer(t)

		res := doJSON(t, srv, http.MethodPost, "/v1/products", owner,
			map[string]any{"name": "Lemon", "quantity": 5})
		require.Equal(t, http.StatusCreated, res.StatusCode)

		var created struct {
			ID       int   `json:"id"`
			Quantity int64 `json:"quantity"`
		}
		decodeBody(t, res, &created)
		require.Equal(t, 0, created.ID)
		require.Equal(t, int64(5), created.Quantity)

		res = doJSON(t, srv, http.MethodPost, "/v1/products", owner,
			map[string]any{"name": "Lemon", "quantity": 2})
		require.Equal(t, http.StatusOK, res.StatusCode)

		var restocked struct {
			ID       int   `json:"id"`
			Quantity int64 `json:"quantity"`
		}
		decodeBody(t, res, &restocked)
		require.Equal(t, 0, restocked.ID)
		require.Equal(t, int64(7), restocked.Quantity)
	})

	t.Run("NonOwnerIsForbidden", func(t *testing.T) {
		srv := newTestServer(t)

		res := doJSON(t, srv, http.MethodPost, "/v1/products", "intruder",
			map[string]any{"name": "Lemon", "quantity": 5})
		require.Equal(t, http.StatusForbidden, res.StatusCode)
		require.Equal(t, "not_owner", errorKind(t, res))
	})

	t.Run("ZeroQuantityIsBadRequest", func(t *testing.T) {
		srv := newTestServer(t)

		res := doJSON(t, srv, http.MethodPost, "/v1/products", owner,
			map[string]any{"name": "Lemon", "quantity": 0})
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
		require.Equal(t, "invalid_argument", errorKind(t, res))
	})
}

func TestPurchaseAndReturnEndpoints(t *testing.T) {
	srv := newTestServer(t)

	res := doJSON(t, srv, http.MethodPost, "/v1/products", owner,
		map[string]any{"name": "Lemon", "quantity": 5})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	// A buys 2.
	res = doJSON(t, srv, http.MethodPost, "/v1/purchases", "A",
		map[string]any{"product_id": 0, "quantity": 2})
	require.Equal(t, http.StatusOK, res.StatusCode)

	// A cannot buy again while the purchase is open.
	res = doJSON(t, srv, http.MethodPost, "/v1/purchases", "A",
		map[string]any{"product_id": 0, "quantity": 1})
	require.Equal(t, http.StatusConflict, res.StatusCode)
	require.Equal(t, "purchase_open", errorKind(t, res))

	// B requests more than remains; error body carries the quantities.
	res = doJSON(t, srv, http.MethodPost, "/v1/purchases", "B",
		map[string]any{"product_id": 0, "quantity": 10})
	require.Equal(t, http.StatusConflict, res.StatusCode)
	var insufficientBody struct {
		Error struct {
			Kind      string `json:"kind"`
			ProductID int    `json:"product_id"`
			Requested int64  `json:"requested"`
			Available int64  `json:"available"`
		} `json:"error"`
	}
	decodeBody(t, res, &insufficientBody)
	require.Equal(t, "insufficient_stock", insufficientBody.Error.Kind)
	require.Equal(t, 0, insufficientBody.Error.ProductID)
	require.Equal(t, int64(10), insufficientBody.Error.Requested)
	require.Equal(t, int64(3), insufficientBody.Error.Available)

	// A returns 2; quantity is back to 5.
	res = doJSON(t, srv, http.MethodPost, "/v1/returns", "A",
		map[string]any{"name": "Lemon", "quantity": 2})
	require.Equal(t, http.StatusOK, res.StatusCode)
	var returned struct {
		Quantity int64 `json:"quantity"`
	}
	decodeBody(t, res, &returned)
	require.Equal(t, int64(5), returned.Quantity)

	// B returning without a purchase conflicts.
	res = doJSON(t, srv, http.MethodPost, "/v1/returns", "B",
		map[string]any{"name": "Lemon", "quantity": 1})
	require.Equal(t, http.StatusConflict, res.StatusCode)
	require.Equal(t, "no_open_purchase", errorKind(t, res))

	// Anonymous purchases are rejected.
	res = doJSON(t, srv, http.MethodPost, "/v1/purchases", "",
		map[string]any{"product_id": 0, "quantity": 1})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Equal(t, "missing_caller", errorKind(t, res))
}

func TestReadEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, p := range []struct {
		name string
		qty  int64
	}{{"Lemon", 1}, {"Mango", 2}} {
		res := doJSON(t, srv, http.MethodPost, "/v1/products", owner,
			map[string]any{"name": p.name, "quantity": p.qty})
		require.Equal(t, http.StatusCreated, res.StatusCode)
	}
	res := doJSON(t, srv, http.MethodPost, "/v1/purchases", "alice",
		map[string]any{"product_id": 0, "quantity": 1})
	require.Equal(t, http.StatusOK, res.StatusCode)

	t.Run("AvailableHidesSoldOut", func(t *testing.T) {
		res := doJSON(t, srv, http.MethodGet, "/v1/products/available", "", nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		var names []string
		decodeBody(t, res, &names)
		require.Equal(t, []string{"Mango"}, names)
	})

	t.Run("BuyersByProduct", func(t *testing.T) {
		res := doJSON(t, srv, http.MethodGet, "/v1/buyers?product=Lemon", "", nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		var buyers []string
		decodeBody(t, res, &buyers)
		require.Equal(t, []string{"alice"}, buyers)
	})

	t.Run("BuyersUnknownProductIs404", func(t *testing.T) {
		res := doJSON(t, srv, http.MethodGet, "/v1/buyers?product=Ghost", "", nil)
		require.Equal(t, http.StatusNotFound, res.StatusCode)
		require.Equal(t, "not_found", errorKind(t, res))
	})

	t.Run("ProductDetailByID", func(t *testing.T) {
		res := doJSON(t, srv, http.MethodGet, "/v1/products/0", "", nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		var detail struct {
			Name       string `json:"name"`
			Quantity   int64  `json:"quantity"`
			BuyerCount int    `json:"buyer_count"`
		}
		decodeBody(t, res, &detail)
		require.Equal(t, "Lemon", detail.Name)
		require.Equal(t, int64(0), detail.Quantity)
		require.Equal(t, 1, detail.BuyerCount)
	})

	t.Run("ProductDetailOutOfRangeIs404", func(t *testing.T) {
		res := doJSON(t, srv, http.MethodGet, "/v1/products/42", "", nil)
		require.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("SearchFallsBackToCatalog", func(t *testing.T) {
		res := doJSON(t, srv, http.MethodGet, "/v1/products/search?q=man", "", nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		var hits []struct {
			Name string `json:"name"`
		}
		decodeBody(t, res, &hits)
		require.Len(t, hits, 1)
		require.Equal(t, "Mango", hits[0].Name)
	})

	t.Run("MovementsDisabledWithoutAuditStore", func(t *testing.T) {
		res := doJSON(t, srv, http.MethodGet, "/v1/movements", "", nil)
		require.Equal(t, http.StatusNotImplemented, res.StatusCode)
		require.Equal(t, "audit_disabled", errorKind(t, res))
	})
}
