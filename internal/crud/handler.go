package crud

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/pkg"
)

// Handler exposes the engine over HTTP under /crud/:namespace.
type Handler struct {
	engine *Engine
	limits pkg.PageLimits
}

// NewHandler creates a Handler for engine.
func NewHandler(engine *Engine, limits pkg.PageLimits) *Handler {
	return &Handler{engine: engine, limits: limits}
}

// List handles GET /crud/:namespace.
func (h *Handler) List(c *gin.Context) {
	req := pkg.ParsePageRequest(c, h.limits)
	result, err := h.engine.List(c.Request.Context(), c.Param("namespace"), req)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.List(c, result)
}

// Config handles GET /crud/:namespace/config.
func (h *Handler) Config(c *gin.Context) {
	cfg, err := h.engine.Config(c.Request.Context(), c.Param("namespace"))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, cfg)
}

// CreateForm handles GET /crud/:namespace/form-config.
func (h *Handler) CreateForm(c *gin.Context) {
	form, err := h.engine.Form(c.Request.Context(), c.Param("namespace"), 0)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, form)
}

// EditForm handles GET /crud/:namespace/form-config/:id.
func (h *Handler) EditForm(c *gin.Context) {
	id, err := pkg.ParseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}
	form, err := h.engine.Form(c.Request.Context(), c.Param("namespace"), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, form)
}

// Create handles POST /crud/:namespace.
func (h *Handler) Create(c *gin.Context) {
	in, ok := bindInput(c)
	if !ok {
		return
	}
	entry, err := h.engine.Create(c.Request.Context(), c.Param("namespace"), in)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Created(c, entry)
}

// Update handles PUT /crud/:namespace/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := pkg.ParseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}
	in, ok := bindInput(c)
	if !ok {
		return
	}
	entry, err := h.engine.Update(c.Request.Context(), c.Param("namespace"), id, in)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, entry)
}

// Delete handles DELETE /crud/:namespace/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := pkg.ParseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}
	result, err := h.engine.Delete(c.Request.Context(), c.Param("namespace"), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Message(c, result.Status, result.Message, nil)
}

// Bulk handles POST /crud/:namespace/bulk-actions.
func (h *Handler) Bulk(c *gin.Context) {
	var req BulkRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	result, err := h.engine.Bulk(c.Request.Context(), c.Param("namespace"), req)
	var appErr *domain.AppError
	switch {
	case domain.IsForbidden(err) && errors.As(err, &appErr):
		pkg.Failed(c, http.StatusForbidden, appErr.Message)
		return
	case err != nil:
		pkg.Error(c, err)
		return
	}
	pkg.Message(c, result.Status, result.Message, gin.H{
		"success": result.Success,
		"failed":  result.Failed,
	})
}

func bindInput(c *gin.Context) (Input, bool) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, msg, err))
		return nil, false
	}
	if in == nil {
		in = Input{}
	}
	return in, true
}

// Module registers the CRUD routes.
type Module struct {
	handler *Handler
}

// NewModule creates the CRUD module. Panics if h is nil.
func NewModule(h *Handler) *Module {
	if h == nil {
		panic("crud.NewModule: handler must not be nil")
	}
	return &Module{handler: h}
}

// RegisterRoutes implements app.Module.
func (m *Module) RegisterRoutes(api *gin.RouterGroup) {
	g := api.Group("/crud/:namespace")
	g.GET("", m.handler.List)
	g.GET("/config", m.handler.Config)
	g.GET("/form-config", m.handler.CreateForm)
	g.GET("/form-config/:id", m.handler.EditForm)
	g.POST("", m.handler.Create)
	g.POST("/bulk-actions", m.handler.Bulk)
	g.PUT("/:id", m.handler.Update)
	g.DELETE("/:id", m.handler.Delete)
}
