package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentledger/backend/internal/domain/billing"
	"github.com/rentledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockBillRepository is a mock implementation of billing.BillRepository
type MockBillRepository struct {
	mock.Mock
}

func (m *MockBillRepository) Save(ctx context.Context, bill *billing.Bill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

func (m *MockBillRepository) SaveWithLock(ctx context.Context, bill *billing.Bill, expectedVersion int) error {
	args := m.Called(ctx, bill, expectedVersion)
	return args.Error(0)
}

func (m *MockBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Bill), args.Error(1)
}

func (m *MockBillRepository) FindByBillNumber(ctx context.Context, billNumber string) (*billing.Bill, error) {
	args := m.Called(ctx, billNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Bill), args.Error(1)
}

func (m *MockBillRepository) FindOverdueCandidates(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockBillRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*billing.Bill], error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(shared.Paginated[*billing.Bill]), args.Error(1)
}

func (m *MockBillRepository) List(ctx context.Context, filter shared.Filter) (shared.Paginated[*billing.Bill], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[*billing.Bill]), args.Error(1)
}

func (m *MockBillRepository) ExistsByBillNumber(ctx context.Context, billNumber string) (bool, error) {
	args := m.Called(ctx, billNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockBillRepository) GenerateBillNumber(ctx context.Context, period billing.BillPeriod) (string, error) {
	args := m.Called(ctx, period)
	return args.String(0), args.Error(1)
}

func (m *MockBillRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPenaltyLogRepository is a mock implementation of billing.PenaltyLogRepository
type MockPenaltyLogRepository struct {
	mock.Mock
}

func (m *MockPenaltyLogRepository) Append(ctx context.Context, entry *billing.PenaltyLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockPenaltyLogRepository) FindByBill(ctx context.Context, billID uuid.UUID) ([]*billing.PenaltyLogEntry, error) {
	args := m.Called(ctx, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.PenaltyLogEntry), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
