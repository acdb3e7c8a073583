package notifier

import (
	"context"
	"sync"

	"github.com/google/uuid"

	appnotification "github.com/rentledger/backend/internal/application/notification"
)

// StaticContactDirectory is an in-memory renter email directory. Renter
// records live in an external system; their addresses are registered here
// at startup or through the admin surface.
type StaticContactDirectory struct {
	mu     sync.RWMutex
	emails map[uuid.UUID]string
}

// NewStaticContactDirectory creates an empty directory
func NewStaticContactDirectory() *StaticContactDirectory {
	return &StaticContactDirectory{
		emails: make(map[uuid.UUID]string),
	}
}

// SetEmail registers or replaces a renter's email address
func (d *StaticContactDirectory) SetEmail(tenantID uuid.UUID, email string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if email == "" {
		delete(d.emails, tenantID)
		return
	}
	d.emails[tenantID] = email
}

// EmailForTenant returns the renter's email, or empty when unknown
func (d *StaticContactDirectory) EmailForTenant(ctx context.Context, tenantID uuid.UUID) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.emails[tenantID], nil
}

var _ appnotification.ContactDirectory = (*StaticContactDirectory)(nil)
