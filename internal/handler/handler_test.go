package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridwanfathin/invoicing-service/internal/currency"
	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/middleware"
	"github.com/ridwanfathin/invoicing-service/internal/model"
	"github.com/ridwanfathin/invoicing-service/internal/repository"
	"github.com/ridwanfathin/invoicing-service/internal/service"
	"github.com/ridwanfathin/invoicing-service/internal/stock"
)

const (
	headerTestUser = "X-Test-User"
	headerTestRole = "X-Test-Role"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testActor stands in for the auth middleware
func testActor(c *gin.Context) {
	if userID := c.GetHeader(headerTestUser); userID != "" {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextUserRole, c.GetHeader(headerTestRole))
	}
	c.Next()
}

type testAPI struct {
	router *gin.Engine
	store  *repository.MemoryStore
}

func newRatesServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("base") {
		case "GHS":
			_, _ = w.Write([]byte(`{"base":"GHS","date":"2024-05-01","rates":{"USD":0.08}}`))
		case "EUR":
			_, _ = w.Write([]byte(`{"base":"EUR","date":"2024-05-01","rates":{"USD":1.07,"GHS":15.2}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()

	for _, u := range []*domain.User{
		{ID: "owner", Email: "owner@acme.test", Role: domain.RoleOwner, TeamID: "acme", IsActive: true},
		{ID: "member", Email: "member@acme.test", Role: domain.RoleMember, TeamID: "acme", IsActive: true},
		{ID: "outsider", Email: "owner@other.test", Role: domain.RoleOwner, IsActive: true},
	} {
		require.NoError(t, store.CreateUserWithPassword(ctx, u))
	}

	rates := currency.NewClient(newRatesServer(t).URL)

	invoiceService := service.NewInvoiceService(service.InvoiceServiceConfig{
		Invoices:        store,
		Users:           store,
		Rates:           rates,
		DefaultCurrency: "GHS",
		Hooks:           []service.InvoiceCreatedHook{stock.NewDispatcher(store)},
	})
	catalogService := service.NewCatalogService(store, store)

	router := gin.New()
	v1 := router.Group("/v1", testActor)
	manage := middleware.RequireAnyRole(domain.RoleOwner, domain.RoleAdmin)
	NewInvoiceHandler(invoiceService).RegisterRoutes(v1, manage)
	NewCatalogHandler(catalogService).RegisterRoutes(v1, manage)
	NewCurrencyHandler(rates, "GHS").RegisterRoutes(v1)

	return &testAPI{router: router, store: store}
}

func (a *testAPI) do(t *testing.T, method, path, user string, role domain.Role, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(headerTestUser, user)
		req.Header.Set(headerTestRole, string(role))
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

var exampleInvoice = map[string]interface{}{
	"invoiceDate": "2024-05-01",
	"billTo":      map[string]string{"name": "Kofi Traders"},
	"items": []map[string]interface{}{
		{"description": "Consulting", "unitPrice": 230, "quantity": 1},
	},
}

func (a *testAPI) createInvoice(t *testing.T, body interface{}) *domain.Invoice {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/invoices", "owner", domain.RoleOwner, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.InvoiceResponse](t, rec).Invoice
}

func TestCreateInvoice(t *testing.T) {
	api := newTestAPI(t)

	inv := api.createInvoice(t, exampleInvoice)
	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, domain.DocumentTypeInvoice, inv.DocumentType)
	assert.Equal(t, 191.67, inv.Subtotal)
	assert.Equal(t, 28.75, inv.TotalVAT)
	assert.Equal(t, 4.79, inv.TotalNHIL)
	assert.Equal(t, 4.79, inv.TotalGetFund)
	assert.Equal(t, 230.0, inv.GrandTotal)
	assert.Equal(t, 230.0, inv.BalanceDue)
	assert.Equal(t, domain.StatusUnpaid, inv.Status)
	assert.Equal(t, "GHS", inv.Currency)

	t.Run("string numbers and warnings", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/v1/invoices", "member", domain.RoleMember, map[string]interface{}{
			"items": []map[string]interface{}{
				{"description": "Good", "unitPrice": "115", "quantity": "2"},
				{"description": "Bad", "unitPrice": "abc", "quantity": 1},
			},
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		resp := decode[model.InvoiceResponse](t, rec)
		assert.Equal(t, 230.0, resp.Invoice.GrandTotal)
		require.Len(t, resp.Warnings, 1)
		assert.Equal(t, "unitPrice", resp.Warnings[0].Field)
	})

	tests := []struct {
		name   string
		user   string
		body   interface{}
		status int
	}{
		{name: "unauthenticated", body: exampleInvoice, status: http.StatusUnauthorized},
		{name: "malformed body", user: "owner", body: `{"items":`, status: http.StatusBadRequest},
		{name: "no items", user: "owner", body: map[string]interface{}{"items": []interface{}{}}, status: http.StatusBadRequest},
		{name: "negative payment", user: "owner", body: map[string]interface{}{
			"items":      exampleInvoice["items"],
			"amountPaid": -5,
		}, status: http.StatusBadRequest},
		{name: "unknown type", user: "owner", body: map[string]interface{}{
			"type":  "receipt",
			"items": exampleInvoice["items"],
		}, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/v1/invoices", tt.user, domain.RoleOwner, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[model.ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestQuoteInvoice(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/v1/invoices/quote", "member", domain.RoleMember, map[string]interface{}{
		"items":          exampleInvoice["items"],
		"discountAmount": 30,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quote := decode[model.InvoiceResponse](t, rec).Invoice
	assert.Empty(t, quote.ID)
	assert.Equal(t, 200.0, quote.GrandTotal)

	list := api.do(t, http.MethodGet, "/v1/invoices", "member", domain.RoleMember, nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Empty(t, decode[model.InvoicesListResponse](t, list).Data)
}

func TestUpdateInvoice(t *testing.T) {
	api := newTestAPI(t)
	inv := api.createInvoice(t, exampleInvoice)
	path := "/v1/invoices/" + inv.ID

	rec := api.do(t, http.MethodPatch, path, "member", domain.RoleMember, map[string]interface{}{"amountPaid": 100})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPatch, path, "owner", domain.RoleOwner, map[string]interface{}{
		"amountPaid":  100,
		"paymentNote": "deposit",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[domain.Invoice](t, rec)
	assert.Equal(t, domain.StatusPartiallyPaid, updated.Status)
	assert.Equal(t, 130.0, updated.BalanceDue)
	require.Len(t, updated.PaymentHistory, 1)
	assert.Equal(t, 100.0, updated.PaymentHistory[0].Amount)
	assert.Equal(t, "owner", updated.PaymentHistory[0].RecordedBy)

	rec = api.do(t, http.MethodPut, path, "owner", domain.RoleOwner, map[string]interface{}{
		"items": []map[string]interface{}{{"description": "x", "amount": "NaN", "vat": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPut, "/v1/invoices/missing", "owner", domain.RoleOwner, map[string]interface{}{"amountPaid": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPut, path, "outsider", domain.RoleOwner, map[string]interface{}{"amountPaid": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestConvertProforma(t *testing.T) {
	api := newTestAPI(t)

	unpaid := api.createInvoice(t, map[string]interface{}{"type": "proforma", "items": exampleInvoice["items"]})
	rec := api.do(t, http.MethodPost, "/v1/invoices/"+unpaid.ID+"/convert", "owner", domain.RoleOwner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	paid := api.createInvoice(t, map[string]interface{}{
		"type":       "proforma",
		"items":      exampleInvoice["items"],
		"amountPaid": 230,
	})
	require.Equal(t, domain.StatusFullyPaid, paid.Status)

	rec = api.do(t, http.MethodPost, "/v1/invoices/"+paid.ID+"/convert", "member", domain.RoleMember, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/invoices/"+paid.ID+"/convert", "owner", domain.RoleOwner, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	converted := decode[domain.Invoice](t, rec)
	assert.Equal(t, domain.DocumentTypeInvoice, converted.DocumentType)
	require.NotNil(t, converted.ConvertedFromProforma)
	assert.Equal(t, paid.ID, *converted.ConvertedFromProforma)
	assert.Equal(t, 230.0, converted.GrandTotal)

	rec = api.do(t, http.MethodPost, "/v1/invoices/"+paid.ID+"/convert", "owner", domain.RoleOwner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[model.ErrorResponse](t, rec).Message, "already been converted")

	rec = api.do(t, http.MethodPost, "/v1/invoices/"+converted.ID+"/convert", "owner", domain.RoleOwner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetListDeleteInvoice(t *testing.T) {
	api := newTestAPI(t)
	inv := api.createInvoice(t, exampleInvoice)
	api.createInvoice(t, map[string]interface{}{"type": "proforma", "items": exampleInvoice["items"]})

	rec := api.do(t, http.MethodGet, "/v1/invoices/"+inv.ID, "member", domain.RoleMember, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, inv.InvoiceNumber, decode[domain.Invoice](t, rec).InvoiceNumber)

	rec = api.do(t, http.MethodGet, "/v1/invoices/"+inv.ID, "outsider", domain.RoleOwner, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/invoices?type=proforma&limit=5", "member", domain.RoleMember, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[model.InvoicesListResponse](t, rec)
	require.Len(t, list.Data, 1)
	assert.Equal(t, domain.DocumentTypeProforma, list.Data[0].DocumentType)
	assert.Equal(t, 5, list.Pagination.Limit)

	for _, query := range []string{"type=receipt", "page=0", "limit=abc", "startDate=May", "status=Overdue"} {
		rec = api.do(t, http.MethodGet, "/v1/invoices?"+query, "member", domain.RoleMember, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}

	rec = api.do(t, http.MethodDelete, "/v1/invoices/"+inv.ID, "member", domain.RoleMember, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodDelete, "/v1/invoices/"+inv.ID, "owner", domain.RoleOwner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/invoices/"+inv.ID, "owner", domain.RoleOwner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReceivablesSummary(t *testing.T) {
	api := newTestAPI(t)
	api.createInvoice(t, map[string]interface{}{"items": exampleInvoice["items"], "amountPaid": 30})

	rec := api.do(t, http.MethodGet, "/v1/invoices/summary", "member", domain.RoleMember, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decode[domain.ReceivablesSummary](t, rec)
	assert.Equal(t, "GHS", summary.Currency)
	assert.Equal(t, 1, summary.InvoiceCount)
	assert.Equal(t, 200.0, summary.TotalOutstanding)

	rec = api.do(t, http.MethodGet, "/v1/invoices/summary?currency=usd", "member", domain.RoleMember, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary = decode[domain.ReceivablesSummary](t, rec)
	assert.Equal(t, "USD", summary.Currency)
	assert.Equal(t, 18.4, summary.TotalInvoiced)
	assert.Equal(t, 16.0, summary.TotalOutstanding)

	rec = api.do(t, http.MethodGet, "/v1/invoices/summary?currency=XYZ", "member", domain.RoleMember, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/invoices/summary?currency=dollars", "member", domain.RoleMember, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/v1/catalog-items", "member", domain.RoleMember, map[string]interface{}{"name": "Widget"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/catalog-items", "owner", domain.RoleOwner, map[string]interface{}{"sku": "W-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/catalog-items", "owner", domain.RoleOwner, map[string]interface{}{
		"name": "Widget", "unitPrice": 115, "trackStock": true, "stock": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode[domain.CatalogItem](t, rec)

	api.createInvoice(t, map[string]interface{}{
		"items": []map[string]interface{}{
			{"description": "Widget", "unitPrice": 115, "quantity": 2, "catalogItemId": item.ID},
		},
	})

	rec = api.do(t, http.MethodGet, "/v1/catalog-items", "member", domain.RoleMember, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]domain.CatalogItem](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Stock)

	rec = api.do(t, http.MethodGet, "/v1/catalog-items/"+item.ID+"/movements", "member", domain.RoleMember, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	movements := decode[[]domain.StockMovement](t, rec)
	require.Len(t, movements, 1)
	assert.Equal(t, 2, movements[0].Quantity)
	assert.Equal(t, 5, movements[0].OldStock)

	rec = api.do(t, http.MethodGet, "/v1/catalog-items/"+item.ID+"/movements", "outsider", domain.RoleOwner, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/catalog-items", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrencyEndpoints(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/v1/currency/convert?amount=100&from=ghs&to=usd", "member", domain.RoleMember, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, ConversionResponse{Amount: 100, From: "GHS", To: "USD", Rate: 0.08, ConvertedAmount: 8}, decode[ConversionResponse](t, rec))

	rec = api.do(t, http.MethodGet, "/v1/currency/convert?amount=abc&from=GHS&to=USD", "member", domain.RoleMember, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/currency/convert?amount=1&from=GHS", "member", domain.RoleMember, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/currency/convert?amount=1&from=XYZ&to=USD", "member", domain.RoleMember, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/currency/rates", "member", domain.RoleMember, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GHS", decode[currency.ExchangeRates](t, rec).Base)

	rec = api.do(t, http.MethodGet, "/v1/currency/supported", "member", domain.RoleMember, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string][]string{"currencies": {"EUR", "GHS", "USD"}}, decode[map[string][]string](t, rec))
}
