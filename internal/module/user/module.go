package user

import "github.com/gin-gonic/gin"

// UserModule implements the app.Module interface for the directory.
type UserModule struct {
	handler *UserHandler
}

// NewModule creates a new UserModule with the given handler.
// Panics if h is nil.
func NewModule(h *UserHandler) *UserModule {
	if h == nil {
		panic("user.NewModule: handler must not be nil")
	}
	return &UserModule{handler: h}
}

// RegisterRoutes registers the directory API routes.
func (m *UserModule) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/users", m.handler.List)
	api.GET("/users/:id", m.handler.Get)
	api.GET("/options/:kind", m.handler.Options)
}
