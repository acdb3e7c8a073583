package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// BillSortFields contains allowed sort fields for bills
var BillSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"bill_number":      true,
	"tenant_id":        true,
	"property_id":      true,
	"period_year":      true,
	"period_month":     true,
	"kind":             true,
	"due_date":         true,
	"base_amount":      true,
	"penalty_amount":   true,
	"total_amount":     true,
	"paid_amount":      true,
	"remaining_amount": true,
	"status":           true,
	"paid_at":          true,
}

// PenaltyLogSortFields contains allowed sort fields for penalty log entries
var PenaltyLogSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"recorded_at": true,
	"kind":        true,
	"new_amount":  true,
}

// NotificationSortFields contains allowed sort fields for notifications
var NotificationSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"kind":       true,
	"read_at":    true,
}
