package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentledger/backend/internal/domain/billing"
	"github.com/rentledger/backend/internal/domain/shared"
	"github.com/rentledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BillService provides bill issuing and query operations
type BillService struct {
	billRepo billing.BillRepository
	eventBus shared.EventPublisher
	clock    shared.Clock
}

// NewBillService creates a new BillService
func NewBillService(billRepo billing.BillRepository, eventBus shared.EventPublisher, clock shared.Clock) *BillService {
	return &BillService{
		billRepo: billRepo,
		eventBus: eventBus,
		clock:    clock,
	}
}

// CreateBillRequest carries the inputs for issuing a bill
type CreateBillRequest struct {
	TenantID   uuid.UUID       `json:"tenant_id" binding:"required"`
	PropertyID uuid.UUID       `json:"property_id" binding:"required"`
	RoomID     uuid.UUID       `json:"room_id" binding:"required"`
	Month      int             `json:"month" binding:"required,min=1,max=12"`
	Year       int             `json:"year" binding:"required,min=2000"`
	Kind       string          `json:"kind" binding:"required,oneof=RENT UTILITY OTHER"`
	BaseAmount decimal.Decimal `json:"base_amount" binding:"required"`
	DueDate    time.Time       `json:"due_date" binding:"required"`
	Remark     string          `json:"remark"`
}

// BillResponse represents a bill in API responses
type BillResponse struct {
	ID               uuid.UUID               `json:"id"`
	BillNumber       string                  `json:"bill_number"`
	TenantID         uuid.UUID               `json:"tenant_id"`
	PropertyID       uuid.UUID               `json:"property_id"`
	RoomID           uuid.UUID               `json:"room_id"`
	Period           string                  `json:"period"`
	Kind             string                  `json:"kind"`
	DueDate          time.Time               `json:"due_date"`
	BaseAmount       decimal.Decimal         `json:"base_amount"`
	PenaltyAmount    decimal.Decimal         `json:"penalty_amount"`
	PenaltyDays      int                     `json:"penalty_days"`
	PenaltyAppliedAt *time.Time              `json:"penalty_applied_at,omitempty"`
	TotalAmount      decimal.Decimal         `json:"total_amount"`
	PaidAmount       decimal.Decimal         `json:"paid_amount"`
	RemainingAmount  decimal.Decimal         `json:"remaining_amount"`
	Status           string                  `json:"status"`
	PaymentRecords   []PaymentRecordResponse `json:"payment_records,omitempty"`
	Remark           string                  `json:"remark,omitempty"`
	PaidAt           *time.Time              `json:"paid_at,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
	Version          int                     `json:"version"`
}

// PaymentRecordResponse represents a payment record in API responses
type PaymentRecordResponse struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference,omitempty"`
	AppliedAt time.Time       `json:"applied_at"`
}

// BillListFilter defines filtering options for bill list queries
type BillListFilter struct {
	TenantID   *uuid.UUID `form:"tenant_id"`
	PropertyID *uuid.UUID `form:"property_id"`
	Status     string     `form:"status"`
	Kind       string     `form:"kind"`
	Overdue    *bool      `form:"overdue"`
	Search     string     `form:"search"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

// CreateBill issues a new bill with a generated bill number
func (s *BillService) CreateBill(ctx context.Context, req CreateBillRequest) (*BillResponse, error) {
	kind := billing.BillKind(req.Kind)
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Bill kind must be RENT, UTILITY or OTHER")
	}

	period := billing.BillPeriod{Month: req.Month, Year: req.Year}
	billNumber, err := s.billRepo.GenerateBillNumber(ctx, period)
	if err != nil {
		return nil, err
	}

	baseAmount := valueobject.NewMoneyIDR(req.BaseAmount)

	bill, err := billing.NewBill(billNumber, req.TenantID, req.PropertyID, req.RoomID, period, kind, baseAmount, req.DueDate)
	if err != nil {
		return nil, err
	}
	if req.Remark != "" {
		bill.Remark = req.Remark
	}

	if err := s.billRepo.Save(ctx, bill); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, bill)

	return toBillResponse(bill), nil
}

// GetBill returns a bill by ID
func (s *BillService) GetBill(ctx context.Context, id uuid.UUID) (*BillResponse, error) {
	bill, err := s.billRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Bill not found")
	}
	return toBillResponse(bill), nil
}

// ListBills lists bills with filtering and pagination
func (s *BillService) ListBills(ctx context.Context, filter BillListFilter) (shared.Paginated[*BillResponse], error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	domainFilter.Search = filter.Search
	if filter.TenantID != nil {
		domainFilter.Filters["tenant_id"] = *filter.TenantID
	}
	if filter.PropertyID != nil {
		domainFilter.Filters["property_id"] = *filter.PropertyID
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Kind != "" {
		domainFilter.Filters["kind"] = filter.Kind
	}
	if filter.Overdue != nil {
		domainFilter.Filters["overdue"] = *filter.Overdue
	}

	page, err := s.billRepo.List(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[*BillResponse]{}, err
	}

	responses := make([]*BillResponse, len(page.Items))
	for i, b := range page.Items {
		responses[i] = toBillResponse(b)
	}
	return shared.NewPaginated(responses, page.Total, page.Page, page.PageSize), nil
}

func (s *BillService) publishEvents(ctx context.Context, bill *billing.Bill) {
	if s.eventBus == nil {
		return
	}
	for _, event := range bill.GetDomainEvents() {
		_ = s.eventBus.Publish(ctx, event)
	}
	bill.ClearDomainEvents()
}

func toBillResponse(bill *billing.Bill) *BillResponse {
	resp := &BillResponse{
		ID:               bill.ID,
		BillNumber:       bill.BillNumber,
		TenantID:         bill.TenantID,
		PropertyID:       bill.PropertyID,
		RoomID:           bill.RoomID,
		Period:           bill.Period.String(),
		Kind:             string(bill.Kind),
		DueDate:          bill.DueDate,
		BaseAmount:       bill.BaseAmount,
		PenaltyAmount:    bill.Penalty.Amount,
		PenaltyDays:      bill.Penalty.Days,
		PenaltyAppliedAt: bill.Penalty.AppliedAt,
		TotalAmount:      bill.TotalAmount,
		PaidAmount:       bill.PaidAmount,
		RemainingAmount:  bill.RemainingAmount,
		Status:           bill.Status.String(),
		Remark:           bill.Remark,
		PaidAt:           bill.PaidAt,
		CreatedAt:        bill.CreatedAt,
		UpdatedAt:        bill.UpdatedAt,
		Version:          bill.Version,
	}
	if len(bill.PaymentRecords) > 0 {
		resp.PaymentRecords = make([]PaymentRecordResponse, len(bill.PaymentRecords))
		for i, p := range bill.PaymentRecords {
			resp.PaymentRecords[i] = PaymentRecordResponse{
				ID:        p.ID,
				Amount:    p.Amount,
				Method:    string(p.Method),
				Reference: p.Reference,
				AppliedAt: p.AppliedAt,
			}
		}
	}
	return resp
}
