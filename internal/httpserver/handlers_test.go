package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"biomarket/internal/auth"
	"biomarket/internal/domain"
	clientsvc "biomarket/internal/service/client"
	farmsvc "biomarket/internal/service/farm"
	offersvc "biomarket/internal/service/offer"
	productsvc "biomarket/internal/service/product"
	"biomarket/internal/store"
	"github.com/gin-gonic/gin"
)

type apiFixture struct {
	t      *testing.T
	router *gin.Engine
	tokens *auth.Tokens
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mem := store.NewMemory()
	tokens := auth.NewTokens("test-secret")
	router, err := buildRouter(logDiscard(), Deps{
		Store:      mem,
		Tokens:     tokens,
		ProductSvc: productsvc.New(mem),
		OfferSvc:   offersvc.New(mem),
		FarmSvc:    farmsvc.New(mem),
		ClientSvc:  clientsvc.New(mem),
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return &apiFixture{t: t, router: router, tokens: tokens}
}

func (f *apiFixture) token(account string, roles ...string) string {
	f.t.Helper()
	tok, err := f.tokens.Issue(domain.Principal{Account: account, Roles: roles}, time.Hour)
	if err != nil {
		f.t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (f *apiFixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	f.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) expect(rec *httptest.ResponseRecorder, status int) {
	f.t.Helper()
	if rec.Code != status {
		f.t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

type productJSON struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func TestProducts_CreateDuplicateAcrossFarms(t *testing.T) {
	api := newAPI(t)
	farmerA := api.token("farmerA", domain.RoleFarmer)
	farmerB := api.token("farmerB", domain.RoleFarmer)

	api.expect(api.do(http.MethodPost, "/api/farms", farmerA, `{"name":"A"}`), http.StatusOK)
	api.expect(api.do(http.MethodPost, "/api/farms", farmerB, `{"name":"B"}`), http.StatusOK)

	rec := api.do(http.MethodPost, "/api/products", farmerA, `{"name":"Tomato","price":2.50}`)
	api.expect(rec, http.StatusOK)
	if id := decode[int64](t, rec); id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	api.expect(api.do(http.MethodPost, "/api/products", farmerA, `{"name":"Tomato","price":2.50}`), http.StatusConflict)
	api.expect(api.do(http.MethodPost, "/api/products", farmerB, `{"name":"Tomato","price":2.50}`), http.StatusOK)

	rec = api.do(http.MethodGet, "/api/products/by-name/Tomato", "", "")
	api.expect(rec, http.StatusOK)
	if got := decode[[]productJSON](t, rec); len(got) != 2 {
		t.Fatalf("expected one Tomato per farm, got %+v", got)
	}
}

func TestProducts_UpdateThenGet(t *testing.T) {
	api := newAPI(t)
	farmer := api.token("farmerA", domain.RoleFarmer)
	api.expect(api.do(http.MethodPost, "/api/farms", farmer, `{"name":"A"}`), http.StatusOK)

	for _, name := range []string{"Apple", "Beet", "Carrot", "Dill", "Endive"} {
		api.expect(api.do(http.MethodPost, "/api/products", farmer, `{"name":"`+name+`","price":1}`), http.StatusOK)
	}

	rec := api.do(http.MethodPut, "/api/products/5", farmer, `{"name":"Kale","price":3.0}`)
	api.expect(rec, http.StatusOK)
	want := productJSON{ID: 5, Name: "Kale", Price: 3.0}
	if got := decode[productJSON](t, rec); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	rec = api.do(http.MethodGet, "/api/products/5", "", "")
	api.expect(rec, http.StatusOK)
	if got := decode[productJSON](t, rec); got != want {
		t.Fatalf("get after update: expected %+v, got %+v", want, got)
	}
}

func TestProducts_ErrorStatuses(t *testing.T) {
	api := newAPI(t)
	farmer := api.token("farmerA", domain.RoleFarmer)
	client := api.token("alice", domain.RoleClient)

	api.expect(api.do(http.MethodGet, "/api/products/mine", "", ""), http.StatusUnauthorized)
	api.expect(api.do(http.MethodGet, "/api/products/mine", farmer, ""), http.StatusNotFound)
	api.expect(api.do(http.MethodPost, "/api/products", farmer, `{"name":"Tomato","price":1}`), http.StatusNotFound)

	api.expect(api.do(http.MethodPost, "/api/farms", farmer, `{"name":"A"}`), http.StatusOK)

	api.expect(api.do(http.MethodPost, "/api/products", client, `{"name":"Tomato","price":1}`), http.StatusForbidden)
	api.expect(api.do(http.MethodPost, "/api/products", client, `not json`), http.StatusForbidden)
	api.expect(api.do(http.MethodPost, "/api/products", "", `not json`), http.StatusUnauthorized)
	api.expect(api.do(http.MethodPost, "/api/products", farmer, `not json`), http.StatusBadRequest)
	api.expect(api.do(http.MethodPost, "/api/products", farmer, `{"name":"","price":1}`), http.StatusBadRequest)
	api.expect(api.do(http.MethodPost, "/api/products", farmer, `{"name":"Tomato","price":-1}`), http.StatusBadRequest)

	api.expect(api.do(http.MethodGet, "/api/products/42", "", ""), http.StatusNotFound)
	api.expect(api.do(http.MethodGet, "/api/products/by-name/Nothing", "", ""), http.StatusNotFound)
	api.expect(api.do(http.MethodPut, "/api/products/42", farmer, `{"name":"Kale","price":1}`), http.StatusNotFound)
	api.expect(api.do(http.MethodPut, "/api/products/42/delete", farmer, ""), http.StatusNotFound)
}

func TestProducts_DeleteAndListMine(t *testing.T) {
	api := newAPI(t)
	farmer := api.token("farmerA", domain.RoleFarmer)
	api.expect(api.do(http.MethodPost, "/api/farms", farmer, `{"name":"A"}`), http.StatusOK)

	rec := api.do(http.MethodPost, "/api/products", farmer, `{"name":"Tomato","price":"2.5"}`)
	api.expect(rec, http.StatusOK)
	id := decode[int64](t, rec)
	api.expect(api.do(http.MethodPost, "/api/products", farmer, `{"name":"Kale","price":3}`), http.StatusOK)

	rec = api.do(http.MethodPut, "/api/products/"+strconv.FormatInt(id, 10)+"/delete", farmer, "")
	api.expect(rec, http.StatusOK)
	deleted := decode[map[string]any](t, rec)
	if deleted["deleted"] != true || deleted["name"] != "Tomato" {
		t.Fatalf("unexpected deleted product %+v", deleted)
	}

	rec = api.do(http.MethodGet, "/api/products/mine", farmer, "")
	api.expect(rec, http.StatusOK)
	mine := decode[[]productJSON](t, rec)
	if len(mine) != 1 || mine[0].Name != "Kale" {
		t.Fatalf("expected only Kale, got %+v", mine)
	}
	api.expect(api.do(http.MethodGet, "/api/products/"+strconv.FormatInt(id, 10), "", ""), http.StatusNotFound)
}

func TestOffers_PostBuyAndList(t *testing.T) {
	api := newAPI(t)
	farmer := api.token("farmerA", domain.RoleFarmer)
	alice := api.token("alice", domain.RoleClient)
	bob := api.token("bob", domain.RoleClient)

	api.expect(api.do(http.MethodPost, "/api/farms", farmer, `{"name":"A"}`), http.StatusOK)
	api.expect(api.do(http.MethodPost, "/api/clients", alice, `{"firstName":"Alice","lastName":"Smith"}`), http.StatusOK)
	api.expect(api.do(http.MethodPost, "/api/clients", bob, `{"firstName":"Bob"}`), http.StatusOK)
	api.expect(api.do(http.MethodPost, "/api/clients", alice, `{"firstName":"Alice"}`), http.StatusConflict)

	rec := api.do(http.MethodPost, "/api/products", farmer, `{"name":"Tomato","price":2.5}`)
	api.expect(rec, http.StatusOK)
	productID := decode[int64](t, rec)

	rec = api.do(http.MethodPost, "/api/offers", farmer, `{"productId":`+strconv.FormatInt(productID, 10)+`,"quantity":10,"productPhoto":"t.jpg"}`)
	api.expect(rec, http.StatusOK)
	offer := decode[map[string]any](t, rec)
	offerPath := "/api/offers/" + strconv.FormatFloat(offer["id"].(float64), 'f', 0, 64)

	rec = api.do(http.MethodGet, "/api/offers", "", "")
	api.expect(rec, http.StatusOK)
	if list := decode[[]map[string]any](t, rec); len(list) != 1 {
		t.Fatalf("expected one available offer, got %+v", list)
	}

	api.expect(api.do(http.MethodPut, offerPath+"/buy", farmer, ""), http.StatusForbidden)
	rec = api.do(http.MethodPut, offerPath+"/buy", alice, "")
	api.expect(rec, http.StatusOK)
	bought := decode[map[string]any](t, rec)
	buyer, _ := bought["boughtBy"].(map[string]any)
	if buyer["firstName"] != "Alice" || bought["boughtDate"] == nil {
		t.Fatalf("expected alice as buyer, got %+v", bought)
	}
	api.expect(api.do(http.MethodPut, offerPath+"/buy", bob, ""), http.StatusConflict)

	rec = api.do(http.MethodGet, "/api/offers", "", "")
	api.expect(rec, http.StatusOK)
	if list := decode[[]map[string]any](t, rec); len(list) != 0 {
		t.Fatalf("sold offer still available: %+v", list)
	}

	rec = api.do(http.MethodGet, "/api/offers/purchased", alice, "")
	api.expect(rec, http.StatusOK)
	if list := decode[[]map[string]any](t, rec); len(list) != 1 {
		t.Fatalf("expected one purchase, got %+v", list)
	}

	rec = api.do(http.MethodGet, "/api/products/"+strconv.FormatInt(productID, 10)+"/offers", "", "")
	api.expect(rec, http.StatusOK)
	list := decode[[]map[string]any](t, rec)
	if len(list) != 1 {
		t.Fatalf("expected one offer for product, got %+v", list)
	}
	if _, ok := list[0]["boughtBy"]; ok {
		t.Fatalf("basic view must not carry the buyer: %+v", list[0])
	}
}

func TestAccounts(t *testing.T) {
	api := newAPI(t)
	farmer := api.token("farmerA", domain.RoleFarmer)
	alice := api.token("alice", domain.RoleClient)

	api.expect(api.do(http.MethodGet, "/api/farms/mine", farmer, ""), http.StatusNotFound)
	api.expect(api.do(http.MethodPost, "/api/farms", alice, `{"name":"Nope"}`), http.StatusForbidden)
	api.expect(api.do(http.MethodPost, "/api/farms", farmer, `{}`), http.StatusBadRequest)
	api.expect(api.do(http.MethodPost, "/api/farms", farmer, `{"name":"Green Acres"}`), http.StatusOK)
	api.expect(api.do(http.MethodPost, "/api/farms", farmer, `{"name":"Again"}`), http.StatusConflict)

	rec := api.do(http.MethodGet, "/api/farms/mine", farmer, "")
	api.expect(rec, http.StatusOK)
	if farm := decode[map[string]any](t, rec); farm["name"] != "Green Acres" {
		t.Fatalf("unexpected farm %+v", farm)
	}

	api.expect(api.do(http.MethodGet, "/api/clients/me", alice, ""), http.StatusNotFound)
	api.expect(api.do(http.MethodPost, "/api/clients", farmer, `{"firstName":"F"}`), http.StatusForbidden)
	api.expect(api.do(http.MethodPost, "/api/clients", alice, `{"firstName":"Alice"}`), http.StatusOK)
	rec = api.do(http.MethodGet, "/api/clients/me", alice, "")
	api.expect(rec, http.StatusOK)
	if me := decode[map[string]any](t, rec); me["account"] != "alice" {
		t.Fatalf("unexpected profile %+v", me)
	}
}

func TestReady_MemoryStore(t *testing.T) {
	api := newAPI(t)
	api.expect(api.do(http.MethodGet, "/readyz", "", ""), http.StatusOK)
}
