package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fairyhunter13/product-configurator-simulator/internal/backend"
	"github.com/fairyhunter13/product-configurator-simulator/internal/config"
	"github.com/fairyhunter13/product-configurator-simulator/internal/configurator"
	"github.com/fairyhunter13/product-configurator-simulator/internal/connector/occ"
	"github.com/fairyhunter13/product-configurator-simulator/internal/i18n"
	"github.com/fairyhunter13/product-configurator-simulator/internal/model"
	"github.com/fairyhunter13/product-configurator-simulator/internal/obs"
	"github.com/fairyhunter13/product-configurator-simulator/internal/overview"
	"github.com/fairyhunter13/product-configurator-simulator/internal/queue"
	"github.com/fairyhunter13/product-configurator-simulator/internal/store"
)

type ackResp struct {
	Status      string `json:"status"`
	RequestID   string `json:"request_id"`
	Sequence    uint64 `json:"sequence"`
	Action      string `json:"action"`
	OwnerKey    string `json:"owner_key"`
	ReceivedAt  string `json:"received_at"`
	QueueDepth  int    `json:"queue_depth"`
	BacklogSize int    `json:"backlog_size"`
	WorkerCount int    `json:"worker_count"`
}

const productPath = "/owners/product/CONF_LAPTOP"

func setupApp(t *testing.T) (*App, *queue.Manager, context.CancelFunc, http.Handler) {
	t.Helper()
	cfg := config.Load()
	obs.InitLogger()
	sim := httptest.NewServer(backend.New(0).Router())
	conn := occ.NewClient(sim.URL, overview.NewBuilder(i18n.Default("en")), occ.Options{Timeout: 2 * time.Second})
	st := store.New()
	q := queue.New(128)
	svc := configurator.New(st, conn, q)
	mgr := queue.NewManager(cfg, q, svc)
	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)
	app := NewApp(cfg, svc, mgr)
	mux := NewRouter(app)
	return app, mgr, func() { cancel(); mgr.Stop(); sim.Close() }, mux
}

func send(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

// settle waits until the owner's state no longer moves.
func settle(t *testing.T, app *App, mgr *queue.Manager) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		drained := app.Service.Drain(ctx)
		cancel()
		enq, proc, _, depth := mgr.QueueMetrics()
		if drained && enq == proc && depth == 0 && app.Service.Gated() == 0 {
			return
		}
	}
	t.Fatalf("state did not settle")
}

func createLaptop(t *testing.T, app *App, mgr *queue.Manager, mux http.Handler) model.Configuration {
	t.Helper()
	rr := send(mux, http.MethodPost, productPath+"/configuration", "")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}
	settle(t, app, mgr)
	cfg, ok := app.Store.Configuration(model.OwnerKey(model.OwnerProduct, "CONF_LAPTOP"))
	if !ok {
		t.Fatalf("configuration not created")
	}
	return cfg
}

func TestOpenAPIServed(t *testing.T) {
	_, _, cleanup, mux := setupApp(t)
	defer cleanup()
	rr := send(mux, http.MethodGet, "/openapi.yaml", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct == "" {
		t.Fatalf("expected content-type set")
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("openapi:")) {
		t.Fatalf("expected openapi content")
	}
}

func TestDocsServed(t *testing.T) {
	_, _, cleanup, mux := setupApp(t)
	defer cleanup()
	rr := send(mux, http.MethodGet, "/docs", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "swagger-ui") {
		t.Fatalf("expected swagger-ui in docs body")
	}
}

func TestHealthzOK(t *testing.T) {
	_, _, cleanup, mux := setupApp(t)
	defer cleanup()
	if rr := send(mux, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestCreateConfiguration_Ack(t *testing.T) {
	app, mgr, cleanup, mux := setupApp(t)
	defer cleanup()
	req := httptest.NewRequest(http.MethodPost, productPath+"/configuration", nil)
	req.Header.Set("X-Request-Id", "test-req-1")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	var ac ackResp
	if err := json.Unmarshal(rr.Body.Bytes(), &ac); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ac.RequestID != "test-req-1" || ac.OwnerKey != "product/CONF_LAPTOP" || ac.Status != "accepted" || ac.Action != "create_configuration" {
		t.Fatalf("unexpected ack: %+v", ac)
	}
	settle(t, app, mgr)

	gr := send(mux, http.MethodGet, productPath+"/configuration", "")
	if gr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", gr.Code)
	}
	var v configurationView
	if err := json.Unmarshal(gr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if v.Configuration.ConfigID == "" || v.PendingChanges || v.Phase != "idle" {
		t.Fatalf("unexpected view: %+v", v)
	}
	if v.Configuration.PriceSummary == nil {
		t.Fatalf("expected price summary after create")
	}
}

func TestUnknownOwnerKind(t *testing.T) {
	_, _, cleanup, mux := setupApp(t)
	defer cleanup()
	if rr := send(mux, http.MethodPost, "/owners/basket/1/configuration", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestGetConfiguration_NotFound(t *testing.T) {
	_, _, cleanup, mux := setupApp(t)
	defer cleanup()
	rr := send(mux, http.MethodGet, "/owners/product/UNKNOWN/configuration", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var body struct {
		Error     string `json:"error"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.RequestID == "" || body.RequestID != rr.Header().Get("X-Request-Id") {
		t.Fatalf("error body request_id %q does not match header %q", body.RequestID, rr.Header().Get("X-Request-Id"))
	}
}

func TestUpdateConfiguration(t *testing.T) {
	app, mgr, cleanup, mux := setupApp(t)
	defer cleanup()
	createLaptop(t, app, mgr, mux)

	for _, v := range []string{"16", "32"} {
		rr := send(mux, http.MethodPatch, productPath+"/configuration", `{"groupId":"MEMORY","attribute":"RAM","value":"`+v+`"}`)
		if rr.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
		}
	}
	settle(t, app, mgr)

	key := model.OwnerKey(model.OwnerProduct, "CONF_LAPTOP")
	cfg, _ := app.Store.Configuration(key)
	attr, ok := cfg.FindAttribute("MEMORY", "RAM")
	if !ok || attr.SelectedSingleValue != "32" {
		t.Fatalf("expected RAM 32, got %+v", attr)
	}
	if app.Store.HasPendingChanges(key) {
		t.Fatalf("expected no pending changes")
	}
	if g := app.Store.CurrentGroup(key); g == "" {
		t.Fatalf("expected a current group after settle")
	}

	pr := send(mux, http.MethodGet, productPath+"/pending", "")
	var p map[string]any
	if err := json.Unmarshal(pr.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode pending: %v", err)
	}
	if p["pending_changes"] != false {
		t.Fatalf("unexpected pending: %+v", p)
	}
}

func TestUpdateConfiguration_Validation(t *testing.T) {
	app, mgr, cleanup, mux := setupApp(t)
	defer cleanup()
	createLaptop(t, app, mgr, mux)

	cases := []struct {
		body string
		code int
	}{
		{`{"groupId":"MEMORY"}`, http.StatusBadRequest},
		{`{"groupId":"MEMORY","attribute":"NOPE","value":"1"}`, http.StatusBadRequest},
		{`{"groupId":"MEMORY","attribute":"RAM","foo":"bar"}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		if rr := send(mux, http.MethodPatch, productPath+"/configuration", c.body); rr.Code != c.code {
			t.Fatalf("%s: expected %d, got %d", c.body, c.code, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPatch, productPath+"/configuration", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rr.Code)
	}
}

func TestChangeGroup(t *testing.T) {
	app, mgr, cleanup, mux := setupApp(t)
	defer cleanup()
	createLaptop(t, app, mgr, mux)

	if rr := send(mux, http.MethodPost, productPath+"/configuration/group", `{}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	rr := send(mux, http.MethodPost, productPath+"/configuration/group", `{"groupId":"CPU","parentGroupId":"HARDWARE"}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	settle(t, app, mgr)
	key := model.OwnerKey(model.OwnerProduct, "CONF_LAPTOP")
	if g := app.Store.CurrentGroup(key); g != "CPU" {
		t.Fatalf("expected CPU, got %q", g)
	}
	if g := app.Store.MenuParentGroup(key); g != "HARDWARE" {
		t.Fatalf("expected HARDWARE, got %q", g)
	}
}

func TestOverview(t *testing.T) {
	app, mgr, cleanup, mux := setupApp(t)
	defer cleanup()
	createLaptop(t, app, mgr, mux)

	if rr := send(mux, http.MethodGet, productPath+"/overview", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before load, got %d", rr.Code)
	}
	if rr := send(mux, http.MethodPost, productPath+"/overview", ""); rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	settle(t, app, mgr)
	rr := send(mux, http.MethodGet, productPath+"/overview", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var ov model.Overview
	if err := json.Unmarshal(rr.Body.Bytes(), &ov); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if len(ov.Groups) == 0 || ov.Groups[0].ID != "_GEN" || ov.Groups[0].GroupDescription != "General" {
		t.Fatalf("unexpected overview: %+v", ov)
	}
}

func TestAddToCartAndNextOwner(t *testing.T) {
	app, mgr, cleanup, mux := setupApp(t)
	defer cleanup()
	createLaptop(t, app, mgr, mux)

	if rr := send(mux, http.MethodPost, productPath+"/cart", `{"userId":"anonymous"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without cartId, got %d", rr.Code)
	}
	if rr := send(mux, http.MethodGet, productPath+"/next-owner", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before add, got %d", rr.Code)
	}
	rr := send(mux, http.MethodPost, productPath+"/cart", `{"cartId":"cart-1","quantity":1}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	settle(t, app, mgr)

	nr := send(mux, http.MethodGet, productPath+"/next-owner", "")
	if nr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", nr.Code)
	}
	var next map[string]string
	if err := json.Unmarshal(nr.Body.Bytes(), &next); err != nil {
		t.Fatalf("decode next owner: %v", err)
	}
	if next["cart_entry_no"] != "0" || next["next_owner_key"] != "cartEntry/0" {
		t.Fatalf("unexpected next owner: %+v", next)
	}
	if rr := send(mux, http.MethodGet, "/owners/cartEntry/0/configuration", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected re-keyed configuration, got %d", rr.Code)
	}

	cr := send(mux, http.MethodGet, "/carts/cart-1", "")
	var cart map[string]any
	if err := json.Unmarshal(cr.Body.Bytes(), &cart); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if cart["processing"] != false {
		t.Fatalf("expected idle cart, got %+v", cart)
	}
}

func TestCartEntryReadAndUpdate(t *testing.T) {
	app, mgr, cleanup, mux := setupApp(t)
	defer cleanup()
	createLaptop(t, app, mgr, mux)
	send(mux, http.MethodPost, productPath+"/cart", `{"cartId":"cart-1"}`)
	settle(t, app, mgr)

	if rr := send(mux, http.MethodPost, productPath+"/cart/read", `{"cartId":"cart-1"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for product owner, got %d", rr.Code)
	}
	if rr := send(mux, http.MethodPost, "/owners/cartEntry/0/cart/read", `{"cartId":"cart-1"}`); rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	settle(t, app, mgr)
	if rr := send(mux, http.MethodPut, "/owners/cartEntry/0/cart", `{"cartId":"cart-1"}`); rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	settle(t, app, mgr)
	if _, failed := app.Store.LastError(model.OwnerKey(model.OwnerCartEntry, "0")); failed {
		t.Fatalf("unexpected cart entry error")
	}
}

func TestMetricsHandler(t *testing.T) {
	app, mgr, cleanup, mux := setupApp(t)
	defer cleanup()
	createLaptop(t, app, mgr, mux)
	rr := send(mux, http.MethodGet, "/debug/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var m map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("metrics json decode: %v", err)
	}
	for _, k := range []string{"worker_count", "queue_depth", "processed_by_type", "owners"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("missing %s", k)
		}
	}
	byType, _ := m["processed_by_type"].(map[string]any)
	if byType["create_configuration"] != float64(1) {
		t.Fatalf("unexpected processed_by_type: %+v", byType)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, _, cleanup, mux := setupApp(t)
	defer cleanup()
	if rr := send(mux, http.MethodDelete, productPath+"/configuration", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestShutdownBehavior(t *testing.T) {
	app, _, cleanup, mux := setupApp(t)
	defer cleanup()
	app.StartShutdown()
	if rr := send(mux, http.MethodPost, productPath+"/configuration", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
