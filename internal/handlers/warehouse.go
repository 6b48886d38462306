package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masterdash/masterdash/internal/warehouse"
	appErrors "github.com/masterdash/masterdash/pkg/errors"
	"github.com/masterdash/masterdash/pkg/response"
)

// WarehouseHandler exposes read-only diagnostics about the analytical store.
// Admin only; it never executes caller-supplied SQL.
type WarehouseHandler struct {
	store *warehouse.Store
}

// NewWarehouseHandler constructs a WarehouseHandler.
func NewWarehouseHandler(store *warehouse.Store) (*WarehouseHandler, error) {
	if store == nil {
		return nil, errors.New("warehouse handler: store is required")
	}
	return &WarehouseHandler{store: store}, nil
}

// Ping checks warehouse connectivity.
func (h *WarehouseHandler) Ping(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		response.Error(c, appErrors.Wrap(err, "Warehouse unreachable"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reachable": true})
}

// Schema lists the tables and views visible to the warehouse account.
func (h *WarehouseHandler) Schema(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	tables, err := h.store.Tables(ctx)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "Failed to inspect warehouse schema"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tables": tables})
}
