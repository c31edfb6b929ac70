package payables

import (
	"github.com/payables/backend/internal/domain/shared"
)

// Vendor represents a supplier that purchase orders are issued to.
// Vendors are created by seed or admin entry and stay immutable once
// referenced by purchase orders.
type Vendor struct {
	shared.BaseAggregateRoot
	Name string `json:"name"`
}

// NewVendor creates a new vendor
func NewVendor(name string) (*Vendor, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_VENDOR_NAME", "Vendor name cannot be empty")
	}
	if len(name) > 255 {
		return nil, shared.NewDomainError("INVALID_VENDOR_NAME", "Vendor name cannot exceed 255 characters")
	}
	return &Vendor{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
	}, nil
}

// Rename updates the vendor name
func (v *Vendor) Rename(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_VENDOR_NAME", "Vendor name cannot be empty")
	}
	v.Name = name
	v.Touch()
	v.IncrementVersion()
	return nil
}
