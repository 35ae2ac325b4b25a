package httpapi

import (
	"expvar"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Use(WithRequestID, WithLogging, middleware.Recoverer)

	r.Route("/owners/{kind}/{id}", func(r chi.Router) {
		r.Post("/configuration", app.createConfigurationHandler)
		r.Get("/configuration", app.getConfigurationHandler)
		r.Patch("/configuration", app.updateConfigurationHandler)
		r.Post("/configuration/read", app.readConfigurationHandler)
		r.Post("/configuration/group", app.changeGroupHandler)
		r.Get("/pending", app.pendingHandler)
		r.Post("/overview", app.requestOverviewHandler)
		r.Get("/overview", app.getOverviewHandler)
		r.Post("/cart", app.addToCartHandler)
		r.Put("/cart", app.updateCartEntryHandler)
		r.Post("/cart/read", app.readCartEntryHandler)
		r.Post("/next-owner", app.addNextOwnerHandler)
		r.Get("/next-owner", app.nextOwnerHandler)
	})
	r.Get("/carts/{cartId}", app.cartHandler)

	r.Get("/healthz", app.healthHandler)
	r.Get("/debug/metrics", app.metricsHandler)
	r.Handle("/debug/vars", expvar.Handler())
	r.Get("/openapi.yaml", app.openapiHandler)
	r.Get("/docs", app.docsHandler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	})
	return r
}
