package transaction

import "github.com/gin-gonic/gin"

// Module implements the app.Module interface for the transaction endpoints.
type Module struct {
	handler *Handler
}

// NewModule creates a new Module with the given handler.
// Panics if h is nil.
func NewModule(h *Handler) *Module {
	if h == nil {
		panic("transaction.NewModule: handler must not be nil")
	}
	return &Module{handler: h}
}

// RegisterRoutes registers the trigger and history routes.
func (m *Module) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/transactions/trigger/:id", m.handler.Trigger)
	api.GET("/transactions/:id/history", m.handler.History)
}
