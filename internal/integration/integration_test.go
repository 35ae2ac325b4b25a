package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/product-configurator-simulator/internal/backend"
	"github.com/fairyhunter13/product-configurator-simulator/internal/config"
	"github.com/fairyhunter13/product-configurator-simulator/internal/configurator"
	"github.com/fairyhunter13/product-configurator-simulator/internal/connector/occ"
	httpapi "github.com/fairyhunter13/product-configurator-simulator/internal/http"
	"github.com/fairyhunter13/product-configurator-simulator/internal/i18n"
	"github.com/fairyhunter13/product-configurator-simulator/internal/model"
	"github.com/fairyhunter13/product-configurator-simulator/internal/obs"
	"github.com/fairyhunter13/product-configurator-simulator/internal/overview"
	"github.com/fairyhunter13/product-configurator-simulator/internal/queue"
	"github.com/fairyhunter13/product-configurator-simulator/internal/store"
)

type env struct {
	url string
	sim *backend.Server
	svc *configurator.Service
	st  *store.Store
	mgr *queue.Manager
}

// start wires the whole process in memory: API -> service -> occ client ->
// backend simulator, each HTTP hop over a real listener.
func start(t testing.TB, latency time.Duration, lang string) *env {
	t.Helper()
	cfg := config.Load()
	obs.InitLogger()

	sim := backend.New(latency)
	simSrv := httptest.NewServer(sim.Router())
	conn := occ.NewClient(simSrv.URL, overview.NewBuilder(i18n.Default(lang)), occ.Options{
		Timeout:         2 * time.Second,
		BreakerFailures: 5,
		BreakerOpen:     time.Second,
	})
	st := store.New()
	q := queue.New(128)
	svc := configurator.New(st, conn, q)
	mgr := queue.NewManager(cfg, q, svc)
	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)
	api := httptest.NewServer(httpapi.NewRouter(httpapi.NewApp(cfg, svc, mgr)))

	t.Cleanup(func() {
		api.Close()
		cancel()
		mgr.Stop()
		simSrv.Close()
	})
	return &env{url: api.URL, sim: sim, svc: svc, st: st, mgr: mgr}
}

func (e *env) call(t testing.TB, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.url+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, _ = out.ReadFrom(resp.Body)
	return resp, out.Bytes()
}

func (e *env) accepted(t testing.TB, method, path string, body any) {
	t.Helper()
	resp, b := e.call(t, method, path, body)
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(b))
}

func (e *env) quiesce(t testing.TB) {
	t.Helper()
	require.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		if !e.svc.Drain(ctx) {
			return false
		}
		enq, proc, _, depth := e.mgr.QueueMetrics()
		return enq == proc && depth == 0 && e.svc.Gated() == 0
	}, 5*time.Second, 20*time.Millisecond)
}

const laptop = "/owners/product/CONF_LAPTOP"

var laptopKey = model.OwnerKey(model.OwnerProduct, "CONF_LAPTOP")

func TestIntegration_ConfigureAndAddToCart(t *testing.T) {
	e := start(t, 5*time.Millisecond, "en")

	e.accepted(t, http.MethodPost, laptop+"/configuration", nil)
	e.quiesce(t)
	cfg, ok := e.st.Configuration(laptopKey)
	require.True(t, ok)
	require.NotNil(t, cfg.PriceSummary)
	assert.Equal(t, 999.0, cfg.PriceSummary.CurrentTotal.Value)

	e.accepted(t, http.MethodPatch, laptop+"/configuration", map[string]string{"groupId": "DISPLAY", "attribute": "DISPLAY_SIZE", "value": "15"})
	e.accepted(t, http.MethodPatch, laptop+"/configuration", map[string]string{"groupId": "CPU", "attribute": "CPU", "value": "I7"})
	e.accepted(t, http.MethodPatch, laptop+"/configuration", map[string]string{"groupId": "MEMORY", "attribute": "RAM", "value": "16"})
	e.accepted(t, http.MethodPost, laptop+"/configuration/group", map[string]string{"groupId": "SOFTWARE"})
	e.accepted(t, http.MethodPost, laptop+"/cart", map[string]any{"cartId": "cart-1", "quantity": 1})
	e.quiesce(t)

	assert.False(t, e.st.HasPendingChanges(laptopKey))
	assert.Equal(t, "SOFTWARE", e.st.CurrentGroup(laptopKey))
	cfg, _ = e.st.Configuration(laptopKey)
	require.NotNil(t, cfg.PriceSummary)
	assert.Equal(t, 999.0+150+300+100, cfg.PriceSummary.CurrentTotal.Value)

	next, ok := e.st.NextOwner(laptopKey)
	require.True(t, ok)
	assert.Equal(t, "0", next)
	entry, ok := e.st.Configuration(model.OwnerKey(model.OwnerCartEntry, next))
	require.True(t, ok)
	assert.Equal(t, cfg.ConfigID, entry.ConfigID)
	assert.Zero(t, e.st.CartProcesses("cart-1"))
}

func TestIntegration_OverviewIsLocalized(t *testing.T) {
	e := start(t, 0, "de")
	e.accepted(t, http.MethodPost, laptop+"/configuration", nil)
	e.quiesce(t)
	e.accepted(t, http.MethodPost, laptop+"/overview", nil)
	e.quiesce(t)

	resp, b := e.call(t, http.MethodGet, laptop+"/overview", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ov model.Overview
	require.NoError(t, json.Unmarshal(b, &ov))
	require.NotEmpty(t, ov.Groups)
	assert.Equal(t, "_GEN", ov.Groups[0].ID)
	assert.Equal(t, "Allgemein", ov.Groups[0].GroupDescription)
}

func TestIntegration_OverviewHonorsAcceptLanguage(t *testing.T) {
	e := start(t, 0, "en")
	e.accepted(t, http.MethodPost, laptop+"/configuration", nil)
	e.quiesce(t)

	req, err := http.NewRequest(http.MethodPost, e.url+laptop+"/overview", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Language", "de-CH, en;q=0.5")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	e.quiesce(t)

	ov, ok := e.st.Overview(laptopKey)
	require.True(t, ok)
	require.NotEmpty(t, ov.Groups)
	assert.Equal(t, "Allgemein", ov.Groups[0].GroupDescription)
}

func TestIntegration_FailedUpdateResyncs(t *testing.T) {
	e := start(t, 0, "en")
	e.accepted(t, http.MethodPost, laptop+"/configuration", nil)
	e.quiesce(t)

	e.sim.FailNext(1)
	e.accepted(t, http.MethodPatch, laptop+"/configuration", map[string]string{"groupId": "MEMORY", "attribute": "RAM", "value": "32"})
	e.quiesce(t)

	assert.False(t, e.st.HasPendingChanges(laptopKey))
	cfg, ok := e.st.Configuration(laptopKey)
	require.True(t, ok)
	attr, _ := cfg.FindAttribute("MEMORY", "RAM")
	assert.NotEqual(t, "32", attr.SelectedSingleValue, "resync reflects the backend, not the failed edit")
	_, failed := e.st.LastError(laptopKey)
	assert.False(t, failed, "the resync read clears the update error")
}

func TestIntegration_ManyOwnersConcurrently(t *testing.T) {
	e := start(t, time.Millisecond, "en")
	const owners = 20
	var wg sync.WaitGroup
	for i := 0; i < owners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := fmt.Sprintf("/owners/cartEntryGroup/g-%d/configuration", i)
			e.accepted(t, http.MethodPost, path, map[string]string{"productCode": "CONF_LAPTOP"})
		}(i)
	}
	wg.Wait()
	e.quiesce(t)

	for i := 0; i < owners; i++ {
		key := model.OwnerKey(model.OwnerCartEntryGroup, fmt.Sprintf("g-%d", i))
		_, ok := e.st.Configuration(key)
		assert.True(t, ok, key)
	}

	for i := 0; i < owners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := fmt.Sprintf("/owners/cartEntryGroup/g-%d/configuration", i)
			for _, v := range []string{"8", "16", "32"} {
				e.accepted(t, http.MethodPatch, path, map[string]string{"groupId": "MEMORY", "attribute": "RAM", "value": v})
			}
		}(i)
	}
	wg.Wait()
	e.quiesce(t)
	for i := 0; i < owners; i++ {
		key := model.OwnerKey(model.OwnerCartEntryGroup, fmt.Sprintf("g-%d", i))
		assert.False(t, e.st.HasPendingChanges(key), key)
		assert.Equal(t, "idle", e.st.Phase(key).String())
	}
}

func TestIntegration_HighLoadNonBlocking(t *testing.T) {
	e := start(t, 0, "en")
	e.accepted(t, http.MethodPost, laptop+"/configuration", nil)
	e.quiesce(t)

	concurrency, perGoroutine := 20, 10
	client := &http.Client{Timeout: 5 * time.Second}
	var wg sync.WaitGroup
	errCh := make(chan error, concurrency*perGoroutine)
	for g := 0; g < concurrency; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				r, _ := http.NewRequest(http.MethodGet, e.url+laptop+"/pending", nil)
				resp, err := client.Do(r)
				if err != nil {
					errCh <- err
					return
				}
				if resp.StatusCode != http.StatusOK {
					errCh <- fmt.Errorf("expected 200, got %d", resp.StatusCode)
				}
				_ = resp.Body.Close()
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatal(err)
	}
}

func BenchmarkUpdateRoundTrip(b *testing.B) {
	e := start(b, 0, "en")
	e.accepted(b, http.MethodPost, laptop+"/configuration", nil)
	e.quiesce(b)
	values := []string{"8", "16", "32"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.accepted(b, http.MethodPatch, laptop+"/configuration", map[string]string{"groupId": "MEMORY", "attribute": "RAM", "value": values[i%len(values)]})
	}
	e.quiesce(b)
}
