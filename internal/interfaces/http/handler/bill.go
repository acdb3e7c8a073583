package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/rentledger/backend/internal/application/billing"
)

// BillHandler handles bill-related API endpoints
type BillHandler struct {
	BaseHandler
	billService    *billingapp.BillService
	paymentService *billingapp.PaymentService
	penaltyService *billingapp.PenaltyAccrualService
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(
	billService *billingapp.BillService,
	paymentService *billingapp.PaymentService,
	penaltyService *billingapp.PenaltyAccrualService,
) *BillHandler {
	return &BillHandler{
		billService:    billService,
		paymentService: paymentService,
		penaltyService: penaltyService,
	}
}

// CreateBillRequest represents a request to issue a new bill
type CreateBillRequest struct {
	TenantID   uuid.UUID `json:"tenant_id" binding:"required"`
	PropertyID uuid.UUID `json:"property_id" binding:"required"`
	RoomID     uuid.UUID `json:"room_id" binding:"required"`
	Month      int       `json:"month" binding:"required,min=1,max=12"`
	Year       int       `json:"year" binding:"required,min=2000"`
	Kind       string    `json:"kind" binding:"required,oneof=RENT UTILITY OTHER"`
	BaseAmount float64   `json:"base_amount" binding:"required,gt=0"`
	DueDate    time.Time `json:"due_date" binding:"required"`
	Remark     string    `json:"remark"`
}

// RecordPaymentRequest represents a request to apply a payment to a bill
type RecordPaymentRequest struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Method    string  `json:"method" binding:"required,oneof=CASH TRANSFER OTHER"`
	Reference string  `json:"reference"`
}

// AdjustPenaltyRequest represents a request for a manual penalty override
type AdjustPenaltyRequest struct {
	Delta float64 `json:"delta" binding:"required"`
	Note  string  `json:"note" binding:"max=500"`
}

// Create issues a new bill
func (h *BillHandler) Create(c *gin.Context) {
	var req CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := billingapp.CreateBillRequest{
		TenantID:   req.TenantID,
		PropertyID: req.PropertyID,
		RoomID:     req.RoomID,
		Month:      req.Month,
		Year:       req.Year,
		Kind:       req.Kind,
		BaseAmount: toDecimal(req.BaseAmount),
		DueDate:    req.DueDate,
		Remark:     req.Remark,
	}

	bill, err := h.billService.CreateBill(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, bill)
}

// GetByID returns a bill by its ID
func (h *BillHandler) GetByID(c *gin.Context) {
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid bill ID")
		return
	}

	bill, err := h.billService.GetBill(c.Request.Context(), billID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, bill)
}

// List returns bills matching the query filters with pagination
func (h *BillHandler) List(c *gin.Context) {
	filter, err := parseBillListFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.billService.ListBills(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// RecordPayment applies a payment to a bill
func (h *BillHandler) RecordPayment(c *gin.Context) {
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid bill ID")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	bill, err := h.paymentService.RecordPayment(c.Request.Context(), billID, billingapp.RecordPaymentRequest{
		Amount:    toDecimal(req.Amount),
		Method:    req.Method,
		Reference: req.Reference,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, bill)
}

// PreviewPenalty returns what the penalty policy would assess for the bill
// right now, without writing anything
func (h *BillHandler) PreviewPenalty(c *gin.Context) {
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid bill ID")
		return
	}

	preview, err := h.penaltyService.CalculateCurrentPenalty(c.Request.Context(), billID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, preview)
}

// AdjustPenalty applies an administrative delta to a bill's penalty
func (h *BillHandler) AdjustPenalty(c *gin.Context) {
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid bill ID")
		return
	}

	var req AdjustPenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.penaltyService.AdjustPenalty(c.Request.Context(), billID, toDecimal(req.Delta), req.Note)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// PenaltyHistory returns the penalty audit trail for a bill
func (h *BillHandler) PenaltyHistory(c *gin.Context) {
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid bill ID")
		return
	}

	entries, err := h.penaltyService.GetPenaltyHistory(c.Request.Context(), billID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entries)
}

// parseBillListFilter builds a list filter from query parameters.
// UUID and boolean parameters are parsed by hand so malformed values
// surface as 400s rather than silently matching nothing.
func parseBillListFilter(c *gin.Context) (billingapp.BillListFilter, error) {
	filter := billingapp.BillListFilter{
		Status: c.Query("status"),
		Kind:   c.Query("kind"),
		Search: c.Query("search"),
	}

	if v := c.Query("tenant_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, err
		}
		filter.TenantID = &id
	}
	if v := c.Query("property_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, err
		}
		filter.PropertyID = &id
	}
	if v := c.Query("overdue"); v != "" {
		overdue, err := strconv.ParseBool(v)
		if err != nil {
			return filter, err
		}
		filter.Overdue = &overdue
	}
	if v := c.Query("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return filter, err
		}
		filter.Page = page
	}
	if v := c.Query("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return filter, err
		}
		filter.PageSize = size
	}

	return filter, nil
}
