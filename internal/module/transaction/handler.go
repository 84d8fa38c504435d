package transaction

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/posadmin/internal/authz"
	"github.com/simp-lee/posadmin/internal/crud"
	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/pkg"
)

// TriggeredMessage is returned once a transaction has been recorded on demand.
const TriggeredMessage = "The transaction has been triggered."

// Handler serves the transaction endpoints that live outside the CRUD engine.
type Handler struct {
	repo   *Repository
	ledger *Ledger
	auth   crud.Authorizer
	limits pkg.PageLimits
}

// NewHandler creates a transaction handler.
func NewHandler(repo *Repository, ledger *Ledger, auth crud.Authorizer, limits pkg.PageLimits) *Handler {
	return &Handler{repo: repo, ledger: ledger, auth: auth, limits: limits}
}

// Trigger handles GET /api/v1/transactions/trigger/:id. It records an
// occurrence of an active transaction now, whatever its schedule.
func (h *Handler) Trigger(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.auth.AllowedTo(ctx, permissions.Update); err != nil {
		pkg.Error(c, err)
		return
	}

	id, err := pkg.ParseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	t, err := h.repo.Get(ctx, id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	if !t.Active {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, "the transaction is not active", nil))
		return
	}

	author := t.Author
	if caller, ok := authz.CallerFrom(ctx); ok {
		author = caller.UserID
	}

	history, err := h.ledger.Record(ctx, t, author)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Message(c, "success", TriggeredMessage, history)
}

// History handles GET /api/v1/transactions/:id/history.
func (h *Handler) History(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.auth.AllowedTo(ctx, permissions.Read); err != nil {
		pkg.Error(c, err)
		return
	}

	id, err := pkg.ParseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}
	if _, err := h.repo.Get(ctx, id); err != nil {
		pkg.Error(c, err)
		return
	}

	result, err := h.repo.History(ctx, id, pkg.ParsePageRequest(c, h.limits))
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.List(c, result)
}
