package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ramonehamilton/booster-sim/internal/api/handlers"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	systemHandler := handlers.NewSystemHandler(s.systemFacade)

	// Health check endpoint (no versioning)
	s.router.Get("/health", systemHandler.GetHealth)

	// WebSocket endpoint, outside the request timeout
	s.router.Get("/ws", s.wsHub.ServeWs)

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}

		shopHandler := handlers.NewShopHandler(s.shopFacade)
		r.Get("/sets", shopHandler.GetSets)
		r.Get("/sets/{code}/cards", shopHandler.GetSetCards)
		r.Get("/odds", shopHandler.GetOdds)
		r.Get("/wallet", shopHandler.GetWallet)
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", shopHandler.GetCart)
			r.Post("/", shopHandler.AddToCart)
			r.Post("/checkout", shopHandler.Checkout)
			r.Put("/{code}", shopHandler.UpdateCartQuantity)
			r.Delete("/{code}", shopHandler.RemoveFromCart)
		})

		boosterHandler := handlers.NewBoosterHandler(s.boosterFacade)
		r.Route("/boosters", func(r chi.Router) {
			r.Get("/", boosterHandler.GetBoosters)
			r.Post("/open-all", boosterHandler.OpenAll)
			r.Post("/{id}/open", boosterHandler.OpenBooster)
		})

		collectionHandler := handlers.NewCollectionHandler(s.collectionFacade)
		r.Route("/collection", func(r chi.Router) {
			r.Get("/", collectionHandler.GetCollection)
			r.Get("/stats", collectionHandler.GetStats)
			r.Get("/sets", collectionHandler.GetSetCompletion)
			r.Get("/chart", collectionHandler.GetChart)
			r.Get("/export", collectionHandler.ExportCollection)
		})
		r.Route("/sell-cart", func(r chi.Router) {
			r.Get("/", collectionHandler.GetSellCart)
			r.Post("/", collectionHandler.AddToSellCart)
			r.Delete("/", collectionHandler.ClearSellCart)
			r.Post("/sell", collectionHandler.Sell)
			r.Put("/{id}", collectionHandler.UpdateSellCartQuantity)
			r.Delete("/{id}", collectionHandler.RemoveFromSellCart)
		})

		r.Get("/state", systemHandler.GetState)
		r.Get("/version", systemHandler.GetVersion)
		r.Get("/metrics", systemHandler.GetMetrics)
		r.Post("/reset", systemHandler.Reset)
		r.Post("/catalog/refresh", systemHandler.RefreshCatalog)
	})
}
