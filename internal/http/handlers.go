package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/fairyhunter13/product-configurator-simulator/internal/action"
	"github.com/fairyhunter13/product-configurator-simulator/internal/config"
	"github.com/fairyhunter13/product-configurator-simulator/internal/configurator"
	httpopenapi "github.com/fairyhunter13/product-configurator-simulator/internal/http/openapi"
	"github.com/fairyhunter13/product-configurator-simulator/internal/model"
	"github.com/fairyhunter13/product-configurator-simulator/internal/obs"
	"github.com/fairyhunter13/product-configurator-simulator/internal/queue"
	"github.com/fairyhunter13/product-configurator-simulator/internal/store"
)

type App struct {
	Cfg     config.Config
	Service *configurator.Service
	Store   *store.Store
	Manager *queue.Manager
	closing atomic.Bool
	started time.Time
}

type ack struct {
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

func NewApp(cfg config.Config, svc *configurator.Service, m *queue.Manager) *App {
	return &App{Cfg: cfg, Service: svc, Store: svc.Store(), Manager: m, started: time.Now()}
}

func (a *App) StartShutdown() {
	a.closing.Store(true)
	a.Manager.CloseIntake()
}

// dispatch hands act to the service and answers with an ack.
func (a *App) dispatch(w http.ResponseWriter, r *http.Request, act action.Action) {
	if a.closing.Load() || a.Manager.IsShuttingDown() {
		WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
		return
	}
	seq, err := a.Service.Dispatch(act)
	if err != nil {
		WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
		return
	}
	ac := ack{
		Status:      "accepted",
		RequestID:   RequestIDFromContext(r.Context()),
		Sequence:    seq,
		Action:      string(act.Type()),
		OwnerKey:    act.OwnerKey(),
		ReceivedAt:  time.Now().UTC().Format(time.RFC3339),
		QueueDepth:  a.Manager.QueueDepth(),
		BacklogSize: a.Manager.BacklogSize(),
		WorkerCount: a.Manager.WorkerCount(),
	}
	writeJSON(w, http.StatusAccepted, ac)
	obs.Logger.Info("action_accepted",
		"request_id", ac.RequestID,
		"sequence", ac.Sequence,
		"action", ac.Action,
		"owner_key", ac.OwnerKey,
		"queue_depth", ac.QueueDepth,
		"backlog_size", ac.BacklogSize,
		"worker_count", ac.WorkerCount,
	)
}

// decodeBody reads an optional JSON body into v. An empty body leaves v as is.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return false
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func ownerFrom(w http.ResponseWriter, r *http.Request) (model.Owner, bool) {
	kind := model.OwnerKind(chi.URLParam(r, "kind"))
	id := chi.URLParam(r, "id")
	if !kind.Valid() || id == "" {
		WriteJSONError(w, http.StatusNotFound, "not_found", "unknown owner kind")
		return model.Owner{}, false
	}
	return model.NewOwner(kind, id), true
}

// loaded resolves the owner and its current configuration.
func (a *App) loaded(w http.ResponseWriter, r *http.Request) (model.Owner, model.Configuration, bool) {
	o, ok := ownerFrom(w, r)
	if !ok {
		return o, model.Configuration{}, false
	}
	cfg, ok := a.Store.Configuration(o.Key)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "not_found", "no configuration for owner")
		return o, cfg, false
	}
	return o, cfg, true
}

type createRequest struct {
	ProductCode string `json:"productCode"`
}

func (a *App) createConfigurationHandler(w http.ResponseWriter, r *http.Request) {
	o, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	var req createRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductCode == "" && o.Kind == model.OwnerProduct {
		req.ProductCode = o.ID
	}
	if req.ProductCode == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "productCode is required")
		return
	}
	a.dispatch(w, r, action.CreateConfiguration{Owner: o, ProductCode: req.ProductCode})
}

type configurationView struct {
	Configuration   model.Configuration `json:"configuration"`
	PendingChanges  bool                `json:"pendingChanges"`
	Phase           string              `json:"phase"`
	CurrentGroup    string              `json:"currentGroup,omitempty"`
	MenuParentGroup string              `json:"menuParentGroup,omitempty"`
	LastError       *model.ErrorRecord  `json:"lastError,omitempty"`
}

func (a *App) getConfigurationHandler(w http.ResponseWriter, r *http.Request) {
	o, cfg, ok := a.loaded(w, r)
	if !ok {
		return
	}
	v := configurationView{
		Configuration:   cfg,
		PendingChanges:  a.Store.HasPendingChanges(o.Key),
		Phase:           a.Store.Phase(o.Key).String(),
		CurrentGroup:    a.Store.CurrentGroup(o.Key),
		MenuParentGroup: a.Store.MenuParentGroup(o.Key),
	}
	if e, ok := a.Store.LastError(o.Key); ok {
		v.LastError = &e
	}
	writeJSON(w, http.StatusOK, v)
}

type groupRequest struct {
	GroupID       string `json:"groupId"`
	ParentGroupID string `json:"parentGroupId"`
}

func (a *App) readConfigurationHandler(w http.ResponseWriter, r *http.Request) {
	_, cfg, ok := a.loaded(w, r)
	if !ok {
		return
	}
	var req groupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a.dispatch(w, r, action.ReadConfiguration{Configuration: cfg, GroupID: req.GroupID})
}

func (a *App) changeGroupHandler(w http.ResponseWriter, r *http.Request) {
	_, cfg, ok := a.loaded(w, r)
	if !ok {
		return
	}
	var req groupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.GroupID == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "groupId is required")
		return
	}
	a.dispatch(w, r, action.ChangeGroup{Configuration: cfg, GroupID: req.GroupID, ParentGroupID: req.ParentGroupID})
}

type updateRequest struct {
	GroupID   string `json:"groupId"`
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

func (a *App) updateConfigurationHandler(w http.ResponseWriter, r *http.Request) {
	_, cfg, ok := a.loaded(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.GroupID == "" || req.Attribute == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "groupId and attribute are required")
		return
	}
	attr, ok := cfg.FindAttribute(req.GroupID, req.Attribute)
	if !ok {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "attribute "+req.Attribute+" not in group "+req.GroupID)
		return
	}
	payload, _ := cfg.Extract(req.GroupID, model.WithAttributeValue(attr, req.Value))
	a.dispatch(w, r, action.UpdateConfiguration{Configuration: payload})
}

func (a *App) pendingHandler(w http.ResponseWriter, r *http.Request) {
	o, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"owner_key":       o.Key,
		"pending_changes": a.Store.HasPendingChanges(o.Key),
		"outstanding":     a.Store.Outstanding(o.Key),
	})
}

func (a *App) requestOverviewHandler(w http.ResponseWriter, r *http.Request) {
	_, cfg, ok := a.loaded(w, r)
	if !ok {
		return
	}
	act := action.GetConfigurationOverview{Configuration: cfg}
	if tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil && len(tags) > 0 {
		act.Language = tags[0].String()
	}
	a.dispatch(w, r, act)
}

func (a *App) getOverviewHandler(w http.ResponseWriter, r *http.Request) {
	o, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	ov, ok := a.Store.Overview(o.Key)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "not_found", "no overview for owner")
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

type cartRequest struct {
	UserID      string `json:"userId"`
	CartID      string `json:"cartId"`
	Quantity    int    `json:"quantity"`
	EntryNumber string `json:"entryNumber"`
}

func (req *cartRequest) validate() string {
	if req.UserID == "" {
		req.UserID = "anonymous"
	}
	if req.CartID == "" {
		return "cartId is required"
	}
	if req.Quantity < 0 {
		return "quantity must be >= 0"
	}
	return ""
}

func (a *App) addToCartHandler(w http.ResponseWriter, r *http.Request) {
	o, cfg, ok := a.loaded(w, r)
	if !ok {
		return
	}
	var req cartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", msg)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	a.dispatch(w, r, action.AddToCart{Params: model.AddToCartParameters{
		OwnerKey:    o.Key,
		ConfigID:    cfg.ConfigID,
		CartID:      req.CartID,
		UserID:      req.UserID,
		ProductCode: cfg.ProductCode,
		Quantity:    req.Quantity,
	}})
}

func (a *App) updateCartEntryHandler(w http.ResponseWriter, r *http.Request) {
	o, cfg, ok := a.loaded(w, r)
	if !ok {
		return
	}
	var req cartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", msg)
		return
	}
	if req.EntryNumber == "" && o.Kind == model.OwnerCartEntry {
		req.EntryNumber = o.ID
	}
	if req.EntryNumber == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "entryNumber is required")
		return
	}
	a.dispatch(w, r, action.UpdateCartEntry{Params: model.UpdateForCartEntryParameters{
		UserID:          req.UserID,
		CartID:          req.CartID,
		CartEntryNumber: req.EntryNumber,
		Configuration:   cfg,
	}})
}

func (a *App) readCartEntryHandler(w http.ResponseWriter, r *http.Request) {
	o, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	if o.Kind != model.OwnerCartEntry {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "owner must be a cart entry")
		return
	}
	var req cartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", msg)
		return
	}
	a.dispatch(w, r, action.ReadCartEntryConfiguration{Params: model.ReadFromCartEntryParameters{
		UserID:          req.UserID,
		CartID:          req.CartID,
		CartEntryNumber: o.ID,
		Owner:           o,
	}})
}

type nextOwnerRequest struct {
	CartEntryNo string `json:"cartEntryNo"`
}

func (a *App) addNextOwnerHandler(w http.ResponseWriter, r *http.Request) {
	o, _, ok := a.loaded(w, r)
	if !ok {
		return
	}
	var req nextOwnerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CartEntryNo == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "cartEntryNo is required")
		return
	}
	a.dispatch(w, r, action.AddNextOwner{Owner: o.Key, CartEntryNo: req.CartEntryNo})
}

func (a *App) nextOwnerHandler(w http.ResponseWriter, r *http.Request) {
	o, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	no, ok := a.Store.NextOwner(o.Key)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "not_found", "no next owner")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"owner_key":      o.Key,
		"cart_entry_no":  no,
		"next_owner_key": model.OwnerKey(model.OwnerCartEntry, no),
	})
}

func (a *App) cartHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cartId")
	n := a.Store.CartProcesses(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"cart_id":    id,
		"processes":  n,
		"processing": n > 0,
	})
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	enq, proc, backlog, depth := a.Manager.QueueMetrics()
	byType := make(map[string]uint64)
	for t, n := range a.Manager.ProcessedByType() {
		byType[string(t)] = n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"actions_enqueued":  enq,
		"actions_processed": proc,
		"processed_by_type": byType,
		"backlog_size":      backlog,
		"queue_depth":       depth,
		"worker_count":      a.Manager.WorkerCount(),
		"gated_effects":     a.Service.Gated(),
		"last_sequence":     a.Service.LastSequence(),
		"owners":            a.Store.Owners(),
		"uptime_sec":        time.Since(a.started).Seconds(),
	})
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(httpopenapi.DocsHTML)
}
