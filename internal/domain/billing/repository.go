package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentledger/backend/internal/domain/shared"
)

// BillRepository defines the persistence interface for bills
type BillRepository interface {
	Save(ctx context.Context, bill *Bill) error
	// SaveWithLock persists the bill guarded by its optimistic version.
	// Returns a CONCURRENCY_CONFLICT domain error when the stored version
	// no longer matches expectedVersion.
	SaveWithLock(ctx context.Context, bill *Bill, expectedVersion int) error
	FindByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	FindByBillNumber(ctx context.Context, billNumber string) (*Bill, error)
	// FindOverdueCandidates returns the IDs of all unpaid bills whose due
	// date lies before the given instant, regardless of current status.
	FindOverdueCandidates(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*Bill], error)
	List(ctx context.Context, filter shared.Filter) (shared.Paginated[*Bill], error)
	ExistsByBillNumber(ctx context.Context, billNumber string) (bool, error)
	// GenerateBillNumber returns the next BILL-YYYYMM-NNNNN number for the period.
	GenerateBillNumber(ctx context.Context, period BillPeriod) (string, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
