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

// VendorSortFields contains allowed sort fields for vendors
var VendorSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
}

// ProjectSortFields contains allowed sort fields for projects
var ProjectSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"project_title": true,
	"cer_number":    true,
}

// PurchaseOrderSortFields contains allowed sort fields for purchase orders
var PurchaseOrderSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"po_number":          true,
	"po_amount":          true,
	"total_invoiced":     true,
	"total_paid":         true,
	"outstanding_amount": true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"si_number":      true,
	"si_date":        true,
	"due_date":       true,
	"invoice_amount": true,
	"net_amount":     true,
	"status":         true,
	"paid_at":        true,
}

// RequisitionSortFields contains allowed sort fields for check requisitions
var RequisitionSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"requisition_number": true,
	"payee_name":         true,
	"php_amount":         true,
	"status":             true,
	"request_date":       true,
	"approved_at":        true,
}

// DisbursementSortFields contains allowed sort fields for disbursements
var DisbursementSortFields = map[string]bool{
	"id":                            true,
	"created_at":                    true,
	"updated_at":                    true,
	"check_voucher_number":          true,
	"date_check_printing":           true,
	"date_check_scheduled":          true,
	"date_check_released_to_vendor": true,
}
