package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
)

// HealthFunc reports whether a backing dependency is reachable.
type HealthFunc func(ctx context.Context) error

type Handlers struct {
	Orders   *OrderHandler
	Admin    *AdminHandler
	Catalog  *CatalogHandler
	Tracking *TrackingHandler
	Health   HealthFunc
}

const requestTimeout = 30 * time.Second

func NewRouter(h Handlers, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(RecoveryMiddleware(log))
	r.Use(LoggingMiddleware(log))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", healthHandler(h.Health))

	r.Group(func(r chi.Router) {
		r.Use(IdentityMiddleware)

		r.Get("/events", h.Catalog.ListEvents)
		r.Get("/events/active", h.Catalog.GetActiveEvent)
		r.Get("/events/{id}/menu", h.Catalog.ListMenu)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.Orders.CreateOrder)
			r.Get("/", h.Orders.ListOrders)
			r.Get("/{id}", h.Orders.GetOrder)
			r.Put("/{id}/items", h.Orders.EditOrder)
			r.Get("/{id}/status", h.Tracking.GetOrderStatus)
			r.Get("/{id}/history", h.Tracking.GetOrderHistory)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Patch("/orders", h.Admin.BulkTransition)
			r.Patch("/orders/{id}", h.Admin.TransitionOrder)
			r.Delete("/orders", h.Admin.DeleteOrders)
			r.Get("/deletions", h.Tracking.GetDeletionAudit)
			r.Post("/pickup", h.Admin.RedeemPickupCode)

			r.Post("/events", h.Catalog.CreateEvent)
			r.Put("/events/{id}", h.Catalog.UpdateEvent)
			r.Post("/events/{id}/activate", h.Catalog.ActivateEvent)

			r.Post("/menu-items", h.Catalog.CreateMenuItem)
			r.Put("/menu-items/{id}", h.Catalog.UpdateMenuItem)
			r.Post("/menu-items/{id}/restock", h.Admin.RestockMenuItem)

			r.Get("/users", h.Catalog.ListUsers)
			r.Post("/users", h.Catalog.CreateUser)
			r.Patch("/users/{id}", h.Catalog.SetUserActive)
		})
	})

	return r
}

func healthHandler(check HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
