package user

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/posadmin/internal/crud"
	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/pkg"
)

// UserHandler serves the read-only directory endpoints.
type UserHandler struct {
	dir    *Directory
	limits pkg.PageLimits
}

// NewUserHandler creates a new UserHandler reading from dir.
func NewUserHandler(dir *Directory, limits pkg.PageLimits) *UserHandler {
	return &UserHandler{dir: dir, limits: limits}
}

// Get handles GET /api/v1/users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, err := pkg.ParseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	user, err := h.dir.GetUser(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, user)
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(c *gin.Context) {
	req := pkg.ParsePageRequest(c, h.limits)

	result, err := h.dir.ListUsers(c.Request.Context(), req)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.List(c, result)
}

// Options handles GET /api/v1/options/:kind.
func (h *UserHandler) Options(c *gin.Context) {
	sources := map[string]func(context.Context) ([]crud.Option, error){
		"users":     h.dir.Users,
		"customers": h.dir.Customers,
		"registers": h.dir.Registers,
		"roles":     h.dir.Roles,
		"accounts":  h.dir.Accounts,
	}

	load, ok := sources[c.Param("kind")]
	if !ok {
		pkg.Error(c, domain.NewAppError(domain.CodeNotFound, "unknown option list", nil))
		return
	}

	opts, err := load(c.Request.Context())
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, opts)
}
