package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tablehub/backend/internal/core/ports"
	"github.com/tablehub/backend/internal/core/service"
	"github.com/tablehub/backend/internal/infrastructure/db/memory"
	"github.com/tablehub/backend/pkg/secret"
)

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	secret.Cost = bcrypt.MinCost

	store := memory.NewStore()
	ids := service.NewIDGenerator(store)
	return NewRouter(Deps{
		Auth:              service.NewAuthService(store, ids, nil, "test-secret", time.Hour, zerolog.Nop()),
		Tables:            service.NewTableService(store, zerolog.Nop()),
		Records:           service.NewRecordService(store, ids, zerolog.Nop()),
		Health:            map[string]ports.Pinger{"memory": store},
		Logger:            zerolog.Nop(),
		ExposeErrorDetail: true,
		Metrics:           prometheus.NewRegistry(),
	})
}

type apiResponse struct {
	Status  string                     `json:"status"`
	Message string                     `json:"message"`
	Data    map[string]json.RawMessage `json:"data"`
	Errors  map[string]any             `json:"errors"`
}

func call(t *testing.T, e *echo.Echo, method, path, token, body string) (int, apiResponse) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp apiResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s %s: invalid json %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, resp
}

func field(t *testing.T, resp apiResponse, name string) string {
	t.Helper()
	var s string
	if err := json.Unmarshal(resp.Data[name], &s); err != nil {
		t.Fatalf("data.%s is not a string: %s", name, resp.Data[name])
	}
	return s
}

func registerAndLogin(t *testing.T, e *echo.Echo, first, email, role string) (string, string) {
	t.Helper()
	body := `{"firstName":"` + first + `","lastName":"Tester","email":"` + email + `","password":"correct-horse","profileName":"` + role + `"}`
	code, resp := call(t, e, http.MethodPost, "/api/register", "", body)
	if code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d (%+v)", email, code, resp)
	}
	userID := field(t, resp, "id")

	code, resp = call(t, e, http.MethodPost, "/api/login", "", `{"email_or_username":"`+email+`","password":"correct-horse"}`)
	if code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (%+v)", email, code, resp)
	}
	return userID, field(t, resp, "token")
}

func TestRouter_Health(t *testing.T) {
	e := newTestRouter(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_ShopFlow(t *testing.T) {
	e := newTestRouter(t)
	aliceID, alice := registerAndLogin(t, e, "Alice", "alice@example.com", "USER")
	_, bob := registerAndLogin(t, e, "Bob", "bob@example.com", "USER")
	_, admin := registerAndLogin(t, e, "Ada", "ada@example.com", "ADMIN")

	// catalog writes need ADMIN
	if code, _ := call(t, e, http.MethodPost, "/api/products", alice, `{"name":"Lamp","description":"Desk lamp"}`); code != http.StatusForbidden {
		t.Fatalf("user product create: expected 403, got %d", code)
	}
	code, resp := call(t, e, http.MethodPost, "/api/products", admin, `{"name":"Lamp","description":"Desk lamp"}`)
	if code != http.StatusCreated {
		t.Fatalf("admin product create: expected 201, got %d (%+v)", code, resp)
	}
	productID := field(t, resp, "id")
	if !strings.HasPrefix(productID, "PRD-") {
		t.Fatalf("unexpected product id %q", productID)
	}

	// anonymous callers read the catalog
	code, resp = call(t, e, http.MethodGet, "/api/products", "", "")
	if code != http.StatusOK || resp.Status != "success" {
		t.Fatalf("anonymous product list: expected 200, got %d", code)
	}

	// carts are owned; the owner defaults to the caller
	if code, _ := call(t, e, http.MethodPost, "/api/shoppingcarts", "", `{}`); code != http.StatusForbidden {
		t.Fatalf("anonymous cart create: expected 403, got %d", code)
	}
	code, resp = call(t, e, http.MethodPost, "/api/shoppingcarts", alice, `{}`)
	if code != http.StatusCreated {
		t.Fatalf("cart create: expected 201, got %d (%+v)", code, resp)
	}
	cartID := field(t, resp, "id")
	if owner := field(t, resp, "userId"); owner != aliceID {
		t.Fatalf("expected cart owner %s, got %s", aliceID, owner)
	}

	code, _ = call(t, e, http.MethodPost, "/api/productitems", alice, `{"productId":"`+productID+`","shoppingCartId":"`+cartID+`","quantity":2}`)
	if code != http.StatusCreated {
		t.Fatalf("item create: expected 201, got %d", code)
	}
	if code, _ := call(t, e, http.MethodPost, "/api/productitems", bob, `{"productId":"`+productID+`","shoppingCartId":"`+cartID+`"}`); code != http.StatusForbidden {
		t.Fatalf("foreign cart item: expected 403, got %d", code)
	}

	// generic dispatch scopes rows to the owner
	code, resp = call(t, e, http.MethodPost, "/api/tables/productitem/listview", bob, `{}`)
	if code != http.StatusOK {
		t.Fatalf("bob item listview: expected 200, got %d", code)
	}
	if string(resp.Data["count"]) != "0" {
		t.Fatalf("bob should see no items, got count %s", resp.Data["count"])
	}
	code, resp = call(t, e, http.MethodPost, "/api/tables/productitem/listview", alice, `{"filters":{"quantity__gte":2}}`)
	if code != http.StatusOK || string(resp.Data["count"]) != "1" {
		t.Fatalf("alice item listview: expected one row, got %d %s", code, resp.Data["count"])
	}

	if code, _ := call(t, e, http.MethodPost, "/api/tables/shoppingcart/"+cartID+"/detail", bob, ""); code != http.StatusForbidden {
		t.Fatalf("bob cart detail: expected 403, got %d", code)
	}
	if code, _ := call(t, e, http.MethodPost, "/api/tables/shoppingcart/detail", alice, `{"id":"`+cartID+`"}`); code != http.StatusOK {
		t.Fatalf("alice cart detail: expected 200, got %d", code)
	}

	// soft delete hides the cart from the per-entity read but not from detail
	code, _ = call(t, e, http.MethodDelete, "/api/shoppingcarts/"+cartID, alice, "")
	if code != http.StatusNoContent {
		t.Fatalf("cart delete: expected 204, got %d", code)
	}
	if code, _ := call(t, e, http.MethodGet, "/api/shoppingcarts/"+cartID, alice, ""); code != http.StatusNotFound {
		t.Fatalf("deleted cart get: expected 404, got %d", code)
	}
	if code, _ := call(t, e, http.MethodPost, "/api/tables/shoppingcart/"+cartID+"/detail", alice, ""); code != http.StatusOK {
		t.Fatalf("deleted cart detail: expected 200, got %d", code)
	}
}

func TestRouter_ErrorEnvelope(t *testing.T) {
	e := newTestRouter(t)
	_, alice := registerAndLogin(t, e, "Alice", "alice@example.com", "USER")

	code, resp := call(t, e, http.MethodPost, "/api/tables/widget/listview", alice, `{}`)
	if code != http.StatusBadRequest || resp.Status != "error" {
		t.Fatalf("unknown table: expected 400 error envelope, got %d %+v", code, resp)
	}

	code, resp = call(t, e, http.MethodPost, "/api/tables/product/listview", "", `{"filters":{"colour":"red"}}`)
	if code != http.StatusBadRequest {
		t.Fatalf("unknown filter field: expected 400, got %d", code)
	}
	if _, ok := resp.Errors["colour"]; !ok {
		t.Fatalf("expected rejected key in errors, got %v", resp.Errors)
	}

	if code, _ := call(t, e, http.MethodPost, "/api/tables/user/listview", alice, `{}`); code != http.StatusForbidden {
		t.Fatalf("user table as USER: expected 403, got %d", code)
	}

	code, resp = call(t, e, http.MethodPost, "/api/login", "", `{"email_or_username":"alice@example.com","password":"wrong"}`)
	if code != http.StatusUnauthorized || resp.Status != "error" {
		t.Fatalf("bad password: expected 401 error envelope, got %d", code)
	}

	if code, _ := call(t, e, http.MethodGet, "/api/products", "forged.token", ""); code != http.StatusUnauthorized {
		t.Fatalf("forged token: expected 401, got %d", code)
	}
}

func TestRouter_SessionAndProfiles(t *testing.T) {
	e := newTestRouter(t)
	_, alice := registerAndLogin(t, e, "Alice", "alice@example.com", "USER")
	_, root := registerAndLogin(t, e, "Root", "root@example.com", "SUPER-ADMIN")

	if code, _ := call(t, e, http.MethodPost, "/api/session", "", `{"action":"checkout"}`); code != http.StatusUnauthorized {
		t.Fatalf("anonymous session: expected 401, got %d", code)
	}
	code, resp := call(t, e, http.MethodPost, "/api/session", alice, `{"action":"checkout"}`)
	if code != http.StatusCreated {
		t.Fatalf("session: expected 201, got %d (%+v)", code, resp)
	}
	if c := field(t, resp, "code"); len(c) != 6 || strings.ToUpper(c) != c {
		t.Fatalf("unexpected session code %q", c)
	}

	if code, _ := call(t, e, http.MethodGet, "/api/profiles", alice, ""); code != http.StatusForbidden {
		t.Fatalf("profiles as USER: expected 403, got %d", code)
	}
	code, resp = call(t, e, http.MethodGet, "/api/profiles", root, "")
	if code != http.StatusOK {
		t.Fatalf("profiles as SUPER-ADMIN: expected 200, got %d", code)
	}
	if _, ok := resp.Data["profiles"]; !ok {
		t.Fatalf("expected profiles key, got %v", resp.Data)
	}
}
