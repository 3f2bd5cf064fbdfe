package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	reqdto "order-pipeline/internal/handler/dto/request"
	resdto "order-pipeline/internal/handler/dto/response"
	"order-pipeline/internal/handler/httperr"
	"order-pipeline/internal/handler/middleware"
	"order-pipeline/internal/usecase/commands"
	"order-pipeline/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderIdempotencyKey    = "Idempotency-Key"
	HeaderIdempotentReplay  = "Idempotent-Replayed"
	maxIdempotencyKeyLength = 255
)

type OrderHandler struct {
	cmds commands.OrderCommands
	q    queries.OrderQueries
}

func NewOrderHandler(cmds commands.OrderCommands, q queries.OrderQueries) *OrderHandler {
	return &OrderHandler{cmds: cmds, q: q}
}

// @Summary Place order
// @Description Create an order from a cart. Retries with the same Idempotency-Key replay the first outcome.
// @Tags orders
// @Accept json
// @Produce json
// @Param X-Tenant-ID header string true "Tenant id"
// @Param Idempotency-Key header string true "Client-chosen key for duplicate prevention"
// @Param request body reqdto.PlaceOrderRequest true "Place order request"
// @Success 201 {object} resdto.OrderResponse
// @Success 200 {object} resdto.OrderResponse "Replayed result"
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/orders [post]
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		httperr.AbortWithKind(c, http.StatusBadRequest, errMissingTenant, string(commands.KindInvalidRequest), "X-Tenant-ID header is required", nil)
		return
	}

	key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
	if key == "" {
		httperr.AbortWithKind(c, http.StatusBadRequest, commands.ErrIdempotencyKeyRequired, string(commands.KindInvalidRequest), "Idempotency-Key header is required", nil)
		return
	}
	if len(key) > maxIdempotencyKeyLength {
		httperr.AbortWithKind(c, http.StatusBadRequest, errInvalidIdempotencyKey, string(commands.KindInvalidRequest), "Idempotency-Key header is too long", nil)
		return
	}

	var req reqdto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithKind(c, http.StatusBadRequest, err, string(commands.KindInvalidRequest), "Invalid request", err.Error())
		return
	}

	result, err := h.cmds.PlaceOrder(c.Request.Context(), req.ToInput(tenantID, key))
	if err != nil {
		abortWithOrderError(c, err)
		return
	}

	resp, err := resdto.FromOrderView(result.Order)
	if err != nil {
		httperr.AbortWithKind(c, http.StatusInternalServerError, err, httperr.KindInternal, "Internal error", nil)
		return
	}

	c.Header("Location", "/api/orders/"+resp.ID.String())
	if result.IsReplayed {
		c.Header(HeaderIdempotentReplay, "true")
		c.JSON(http.StatusOK, resp)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// @Summary Get order
// @Description Get an order of the tenant by ID
// @Tags orders
// @Produce json
// @Param X-Tenant-ID header string true "Tenant id"
// @Param id path string true "Order ID"
// @Success 200 {object} resdto.OrderResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		httperr.AbortWithKind(c, http.StatusBadRequest, errMissingTenant, string(commands.KindInvalidRequest), "X-Tenant-ID header is required", nil)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithKind(c, http.StatusBadRequest, err, string(commands.KindInvalidRequest), "Invalid id", nil)
		return
	}

	view, err := h.q.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		if errors.Is(err, queries.ErrOrderNotFound) {
			httperr.AbortWithKind(c, http.StatusNotFound, err, string(commands.KindNotFound), "Not found", nil)
			return
		}
		httperr.AbortWithKind(c, http.StatusServiceUnavailable, err, string(commands.KindStoreUnavailable), "Store unavailable", nil)
		return
	}

	resp, err := resdto.FromOrderView(view)
	if err != nil {
		httperr.AbortWithKind(c, http.StatusInternalServerError, err, httperr.KindInternal, "Internal error", nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Cancel order
// @Description Cancel an order and put tracked stock back
// @Tags orders
// @Produce json
// @Param X-Tenant-ID header string true "Tenant id"
// @Param id path string true "Order ID"
// @Success 200 {object} resdto.OrderResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		httperr.AbortWithKind(c, http.StatusBadRequest, errMissingTenant, string(commands.KindInvalidRequest), "X-Tenant-ID header is required", nil)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithKind(c, http.StatusBadRequest, err, string(commands.KindInvalidRequest), "Invalid id", nil)
		return
	}

	view, err := h.cmds.CancelOrder(c.Request.Context(), commands.CancelOrderInput{TenantID: tenantID, OrderID: id})
	if err != nil {
		abortWithOrderError(c, err)
		return
	}

	resp, err := resdto.FromOrderView(view)
	if err != nil {
		httperr.AbortWithKind(c, http.StatusInternalServerError, err, httperr.KindInternal, "Internal error", nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

var (
	errMissingTenant         = errors.New("tenant missing from context")
	errInvalidIdempotencyKey = errors.New("invalid idempotency key")
)

func statusForKind(kind commands.ErrorKind) int {
	switch kind {
	case commands.KindInvalidRequest:
		return http.StatusBadRequest
	case commands.KindNotFound:
		return http.StatusNotFound
	case commands.KindLocked, commands.KindDuplicateInProgress, commands.KindDuplicateCompleted:
		return http.StatusConflict
	case commands.KindInsufficientInventory:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}

func abortWithOrderError(c *gin.Context, err error) {
	oe, ok := commands.AsOrderError(err)
	if !ok {
		httperr.AbortWithKind(c, http.StatusInternalServerError, err, httperr.KindInternal, "Internal error", nil)
		return
	}

	status := statusForKind(oe.Kind)
	if oe.Kind == commands.KindDuplicateFailed {
		status = statusForKind(oe.OriginalKind)
	}
	if d, ok := oe.Detail.(commands.LockedDetail); ok && d.RetryAfterSeconds > 0 {
		c.Header("Retry-After", strconv.Itoa(d.RetryAfterSeconds))
	}

	httperr.AbortWithKind(c, status, err, string(oe.Kind), oe.Message, oe.Detail)
}
