// Package backend simulates the remote configurator REST API in memory.
package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fairyhunter13/product-configurator-simulator/internal/connector/occ"
	"github.com/fairyhunter13/product-configurator-simulator/internal/model"
	"github.com/fairyhunter13/product-configurator-simulator/internal/obs"
	"github.com/fairyhunter13/product-configurator-simulator/internal/overview"
)

type session struct {
	id      string
	product product
	values  map[string]string
}

type cartEntry struct {
	number      int
	productCode string
	quantity    int
	configID    string
}

type cart struct {
	entries []*cartEntry
}

// Server keeps configuration sessions and carts in memory.
type Server struct {
	mu       sync.Mutex
	sessions map[string]*session
	carts    map[string]*cart

	latency  time.Duration
	failNext atomic.Int64
	requests atomic.Uint64
}

func New(latency time.Duration) *Server {
	return &Server{
		sessions: make(map[string]*session),
		carts:    make(map[string]*cart),
		latency:  latency,
	}
}

// FailNext makes the next n requests answer 500.
func (s *Server) FailNext(n int) { s.failNext.Store(int64(n)) }

// Requests returns how many requests the server has seen.
func (s *Server) Requests() uint64 { return s.requests.Load() }

// Router returns the REST routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.simulate)
	r.Get("/products/{productCode}/configurators/ccpconfigurator", s.createHandler)
	r.Route("/ccpconfigurator/{configId}", func(r chi.Router) {
		r.Get("/", s.readHandler)
		r.Patch("/", s.updateHandler)
		r.Get("/pricing", s.pricingHandler)
		r.Get("/configurationOverview", s.overviewHandler)
	})
	r.Route("/users/{userId}/carts/{cartId}/entries", func(r chi.Router) {
		r.Post("/ccpconfigurator", s.addToCartHandler)
		r.Put("/{entryNumber}/ccpconfigurator", s.updateEntryHandler)
		r.Get("/{entryNumber}/ccpconfigurator", s.readEntryHandler)
	})
	return r
}

// simulate applies artificial latency and injected failures.
func (s *Server) simulate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		if s.latency > 0 {
			select {
			case <-time.After(s.latency):
			case <-r.Context().Done():
				return
			}
		}
		if s.failNext.Load() > 0 && s.failNext.Add(-1) >= 0 {
			writeError(w, http.StatusInternalServerError, "InternalError", "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the backend's error envelope.
func writeError(w http.ResponseWriter, status int, typ, msg string) {
	writeJSON(w, status, map[string]any{
		"errors": []map[string]string{{"type": typ, "message": msg}},
	})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id := chi.URLParam(r, "configId")
	sess, ok := s.sessions[id]
	if !ok {
		writeError(w, http.StatusNotFound, "NotFoundError", fmt.Sprintf("configuration %s not found", id))
	}
	return sess, ok
}

func (s *Server) createHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "productCode")
	p, ok := catalog[code]
	if !ok {
		writeError(w, http.StatusNotFound, "UnknownIdentifierError", fmt.Sprintf("product %s is not configurable", code))
		return
	}
	sess := &session{id: uuid.NewString(), product: p, values: make(map[string]string)}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	out := sess.render()
	s.mu.Unlock()
	obs.Logger.Debug("simulator_configuration_created", "config_id", sess.id, "product_code", code)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) readHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if gid := r.URL.Query().Get("groupId"); gid != "" && !hasGroup(sess.product.groups, gid) {
		writeError(w, http.StatusBadRequest, "ValidationError", fmt.Sprintf("unknown group %s", gid))
		return
	}
	writeJSON(w, http.StatusOK, sess.render())
}

func (s *Server) updateHandler(w http.ResponseWriter, r *http.Request) {
	var body occ.Configuration
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid json: "+err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	changes := map[string]string{}
	if err := collectValues(sess.product, body.Groups, changes); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", err.Error())
		return
	}
	for k, v := range changes {
		if v == "" {
			delete(sess.values, k)
			continue
		}
		sess.values[k] = v
	}
	writeJSON(w, http.StatusOK, sess.render())
}

func collectValues(p product, groups []occ.Group, out map[string]string) error {
	for _, g := range groups {
		for _, a := range g.Attributes {
			def, ok := p.findAttribute(a.Name)
			if !ok {
				return fmt.Errorf("unknown attribute %s", a.Name)
			}
			if a.Value != "" {
				if _, ok := def.option(a.Value); !ok {
					return fmt.Errorf("value %s is not allowed for %s", a.Value, a.Name)
				}
			}
			out[a.Name] = a.Value
		}
		if err := collectValues(p, g.SubGroups, out); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) pricingHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, occ.Prices{ConfigID: sess.id, PriceSummary: sess.prices()})
}

func (s *Server) overviewHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, overview.Source{
		ID:                  sess.id,
		ProductCode:         sess.product.code,
		TotalNumberOfIssues: sess.issues(),
		Pricing:             sess.prices(),
		Groups:              sess.overviewGroups(sess.product.groups),
	})
}

func (s *Server) addToCartHandler(w http.ResponseWriter, r *http.Request) {
	var body occ.AddToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid json: "+err.Error())
		return
	}
	if body.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "ValidationError", "quantity must be positive")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[body.ConfigID]
	if !ok {
		writeError(w, http.StatusNotFound, "NotFoundError", fmt.Sprintf("configuration %s not found", body.ConfigID))
		return
	}
	if body.Product.Code != "" && body.Product.Code != sess.product.code {
		writeError(w, http.StatusBadRequest, "ValidationError", "product does not match configuration")
		return
	}
	c := s.cart(chi.URLParam(r, "userId"), chi.URLParam(r, "cartId"))
	e := &cartEntry{number: len(c.entries), productCode: sess.product.code, quantity: body.Quantity, configID: sess.id}
	c.entries = append(c.entries, e)
	writeJSON(w, http.StatusOK, occ.CartModification{
		Entry:         &occ.Entry{EntryNumber: e.number, Quantity: e.quantity, Product: &occ.Product{Code: e.productCode}},
		Quantity:      e.quantity,
		QuantityAdded: body.Quantity,
		StatusCode:    "success",
	})
}

func (s *Server) updateEntryHandler(w http.ResponseWriter, r *http.Request) {
	var body occ.UpdateCartEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid json: "+err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	if _, ok := s.sessions[body.Configuration.ConfigID]; !ok {
		writeError(w, http.StatusNotFound, "NotFoundError", fmt.Sprintf("configuration %s not found", body.Configuration.ConfigID))
		return
	}
	e.configID = body.Configuration.ConfigID
	writeJSON(w, http.StatusOK, occ.CartModification{
		Entry:      &occ.Entry{EntryNumber: e.number, Quantity: e.quantity, Product: &occ.Product{Code: e.productCode}},
		Quantity:   e.quantity,
		StatusCode: "success",
	})
}

func (s *Server) readEntryHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	sess, ok := s.sessions[e.configID]
	if !ok {
		writeError(w, http.StatusNotFound, "NotFoundError", "configuration of entry not found")
		return
	}
	writeJSON(w, http.StatusOK, sess.render())
}

func (s *Server) cart(userID, cartID string) *cart {
	key := userID + "/" + cartID
	c, ok := s.carts[key]
	if !ok {
		c = &cart{}
		s.carts[key] = c
	}
	return c
}

func (s *Server) entry(w http.ResponseWriter, r *http.Request) (*cartEntry, bool) {
	c, ok := s.carts[chi.URLParam(r, "userId")+"/"+chi.URLParam(r, "cartId")]
	n, err := strconv.Atoi(chi.URLParam(r, "entryNumber"))
	if !ok || err != nil || n < 0 || n >= len(c.entries) {
		writeError(w, http.StatusNotFound, "NotFoundError", "cart entry not found")
		return nil, false
	}
	return c.entries[n], true
}

// render builds the wire configuration with current selections.
func (sess *session) render() occ.Configuration {
	issues := sess.issues()
	return occ.Configuration{
		ConfigID:            sess.id,
		RootProduct:         sess.product.code,
		Complete:            issues == 0,
		Consistent:          true,
		TotalNumberOfIssues: issues,
		Groups:              sess.renderGroups(sess.product.groups),
	}
}

func (sess *session) renderGroups(groups []group) []occ.Group {
	out := make([]occ.Group, 0, len(groups))
	for _, g := range groups {
		wg := occ.Group{
			ID:           g.id,
			Name:         g.name,
			Description:  g.description,
			GroupType:    "CSTIC_GROUP",
			Configurable: true,
			SubGroups:    sess.renderGroups(g.subGroups),
		}
		for _, a := range g.attributes {
			val := sess.values[a.name]
			wa := occ.Attribute{
				Name:        a.name,
				LangDepName: a.label,
				Required:    a.required,
				Type:        a.uiType,
				Value:       val,
				Incomplete:  a.required && val == "",
			}
			for _, o := range a.options {
				wa.DomainValues = append(wa.DomainValues, occ.DomainValue{Key: o.code, LangDepName: o.name, Selected: o.code == val})
			}
			wg.Attributes = append(wg.Attributes, wa)
		}
		out = append(out, wg)
	}
	return out
}

func (sess *session) overviewGroups(groups []group) []overview.SourceGroup {
	out := make([]overview.SourceGroup, 0, len(groups))
	for _, g := range groups {
		sg := overview.SourceGroup{
			ID:               g.id,
			GroupDescription: g.description,
			SubGroups:        sess.overviewGroups(g.subGroups),
		}
		for _, a := range g.attributes {
			val, ok := sess.values[a.name]
			if !ok {
				continue
			}
			o, _ := a.option(val)
			sg.CharacteristicValues = append(sg.CharacteristicValues, overview.SourceValue{Characteristic: a.label, Value: o.name})
		}
		out = append(out, sg)
	}
	return out
}

func (sess *session) issues() int {
	n := 0
	var walk func([]group)
	walk = func(gs []group) {
		for _, g := range gs {
			for _, a := range g.attributes {
				if a.required && sess.values[a.name] == "" {
					n++
				}
			}
			walk(g.subGroups)
		}
	}
	walk(sess.product.groups)
	return n
}

func (sess *session) prices() *model.PriceSummary {
	options := 0.0
	for name, val := range sess.values {
		if a, ok := sess.product.findAttribute(name); ok {
			if o, ok := a.option(val); ok {
				options += o.price
			}
		}
	}
	cur := sess.product.currency
	return &model.PriceSummary{
		BasePrice:       price(cur, sess.product.basePrice),
		SelectedOptions: price(cur, options),
		CurrentTotal:    price(cur, sess.product.basePrice+options),
	}
}

func price(currency string, v float64) *model.Price {
	return &model.Price{CurrencyISO: currency, Value: v, FormattedValue: fmt.Sprintf("$%.2f", v)}
}

func hasGroup(groups []group, id string) bool {
	for _, g := range groups {
		if g.id == id || hasGroup(g.subGroups, id) {
			return true
		}
	}
	return false
}
