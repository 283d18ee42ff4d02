package studio

import (
	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures routes for the studio feature.
func SetupRoutes(router chi.Router, deps Deps) error {
	handlers, err := NewHandlers(deps)
	if err != nil {
		return err
	}

	router.Get("/", handlers.StudioPage)

	router.Route("/studio", func(r chi.Router) {
		r.Get("/updates", handlers.StudioUpdates)
		r.Post("/select", handlers.SelectColumn)
		r.Post("/rule", handlers.SetRuleText)
		r.Post("/suggest", handlers.Suggest)
		r.Post("/evaluate", handlers.Evaluate)
		r.Post("/severity", handlers.SetSeverity)
		r.Post("/submit", handlers.Submit)
		r.Post("/rules/delete", handlers.DeleteRule)
		r.Post("/chat/toggle", handlers.ToggleChat)
		r.Post("/chat/send", handlers.SendChat)
	})

	return nil
}
