// internal/handlers/api_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/gestor-be/internal/handlers"
	"github.com/ammerola/gestor-be/internal/handlers/middleware"
	"github.com/ammerola/gestor-be/test/helpers"
	"github.com/ammerola/gestor-be/test/mocks"
)

const testActor = "operador-1"

type api struct {
	handler  http.Handler
	catalog  *mocks.MockCatalogService
	ledger   *mocks.MockLedgerService
	checkout *mocks.MockCheckoutService
	queue    *mocks.MockTaskQueue
	jobs     *mocks.MockExportJobRepository
}

func newAPI(t *testing.T) *api {
	t.Helper()
	ctrl := gomock.NewController(t)
	a := &api{
		catalog:  mocks.NewMockCatalogService(ctrl),
		ledger:   mocks.NewMockLedgerService(ctrl),
		checkout: mocks.NewMockCheckoutService(ctrl),
		queue:    mocks.NewMockTaskQueue(ctrl),
		jobs:     mocks.NewMockExportJobRepository(ctrl),
	}

	logger := helpers.TestLogger()
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, handlers.Routes{
		Products:  handlers.NewProductHandler(a.catalog, a.ledger, logger),
		Movements: handlers.NewMovementHandler(a.ledger, logger),
		Sales:     handlers.NewSaleHandler(a.checkout, logger),
		Exports:   handlers.NewExportHandler(a.queue, a.jobs, logger),
	})
	a.handler = middleware.Chain(mux, middleware.Actor("X-User-ID"))
	return a
}

func (a *api) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", testActor)
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
