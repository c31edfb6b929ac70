package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/payables/backend/internal/domain/payables"
	"github.com/payables/backend/internal/domain/shared/valueobject"
)

// VendorModel is the persistence model for vendors
type VendorModel struct {
	AggregateModel
	Name string `gorm:"size:255;not null;uniqueIndex"`
}

// TableName returns the table name
func (VendorModel) TableName() string {
	return "vendors"
}

// ToDomain converts the model to a domain vendor
func (m *VendorModel) ToDomain() *payables.Vendor {
	return &payables.Vendor{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
	}
}

// FromDomain populates the model from a domain vendor
func (m *VendorModel) FromDomain(v *payables.Vendor) {
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	m.Name = v.Name
}

// ProjectModel is the persistence model for projects
type ProjectModel struct {
	AggregateModel
	ProjectTitle string `gorm:"size:255;not null"`
	CerNumber    string `gorm:"size:100;index"`
}

// TableName returns the table name
func (ProjectModel) TableName() string {
	return "projects"
}

// ToDomain converts the model to a domain project
func (m *ProjectModel) ToDomain() *payables.Project {
	return &payables.Project{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ProjectTitle:      m.ProjectTitle,
		CerNumber:         m.CerNumber,
	}
}

// FromDomain populates the model from a domain project
func (m *ProjectModel) FromDomain(p *payables.Project) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.ProjectTitle = p.ProjectTitle
	m.CerNumber = p.CerNumber
}

// PurchaseOrderModel is the persistence model for purchase orders
type PurchaseOrderModel struct {
	AggregateModel
	PoNumber          string          `gorm:"size:50;not null;uniqueIndex"`
	PoAmount          decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	VendorID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProjectID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	TotalInvoiced     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	TotalPaid         decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	OutstandingAmount decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
}

// TableName returns the table name
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the model to a domain purchase order
func (m *PurchaseOrderModel) ToDomain() *payables.PurchaseOrder {
	return &payables.PurchaseOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		PoNumber:          m.PoNumber,
		PoAmount:          m.PoAmount,
		VendorID:          m.VendorID,
		ProjectID:         m.ProjectID,
		TotalInvoiced:     m.TotalInvoiced,
		TotalPaid:         m.TotalPaid,
		OutstandingAmount: m.OutstandingAmount,
	}
}

// FromDomain populates the model from a domain purchase order
func (m *PurchaseOrderModel) FromDomain(po *payables.PurchaseOrder) {
	m.FromDomainAggregateRoot(po.BaseAggregateRoot)
	m.PoNumber = po.PoNumber
	m.PoAmount = po.PoAmount
	m.VendorID = po.VendorID
	m.ProjectID = po.ProjectID
	m.TotalInvoiced = po.TotalInvoiced
	m.TotalPaid = po.TotalPaid
	m.OutstandingAmount = po.OutstandingAmount
}

// InvoiceModel is the persistence model for invoices
type InvoiceModel struct {
	AggregateModel
	SiNumber        string          `gorm:"size:100;not null;index"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceAmount   decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	NetAmount       decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Currency        string          `gorm:"size:3;not null;default:'PHP'"`
	Status          string          `gorm:"size:30;not null;index"`
	SiDate          time.Time       `gorm:"not null;index"`
	DueDate         *time.Time      `gorm:"index"`
	PaidAt          *time.Time
}

// TableName returns the table name
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the model to a domain invoice
func (m *InvoiceModel) ToDomain() *payables.Invoice {
	return &payables.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		SiNumber:          m.SiNumber,
		PurchaseOrderID:   m.PurchaseOrderID,
		InvoiceAmount:     m.InvoiceAmount,
		NetAmount:         m.NetAmount,
		Currency:          valueobject.Currency(m.Currency),
		Status:            payables.InvoiceStatus(m.Status),
		SiDate:            m.SiDate,
		DueDate:           m.DueDate,
		PaidAt:            m.PaidAt,
	}
}

// FromDomain populates the model from a domain invoice
func (m *InvoiceModel) FromDomain(inv *payables.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.SiNumber = inv.SiNumber
	m.PurchaseOrderID = inv.PurchaseOrderID
	m.InvoiceAmount = inv.InvoiceAmount
	m.NetAmount = inv.NetAmount
	m.Currency = string(inv.Currency)
	m.Status = string(inv.Status)
	m.SiDate = inv.SiDate
	m.DueDate = inv.DueDate
	m.PaidAt = inv.PaidAt
}

// CheckRequisitionModel is the persistence model for check requisitions
type CheckRequisitionModel struct {
	AggregateModel
	RequisitionNumber string          `gorm:"size:50;not null;uniqueIndex"`
	PayeeName         string          `gorm:"size:255;not null"`
	PhpAmount         decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Status            string          `gorm:"size:30;not null;index"`
	RequestDate       time.Time       `gorm:"not null"`
	ApprovedAt        *time.Time
	VendorID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProjectID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Invoices          []*InvoiceModel `gorm:"many2many:check_requisition_invoices;joinForeignKey:CheckRequisitionID;joinReferences:InvoiceID"`
}

// TableName returns the table name
func (CheckRequisitionModel) TableName() string {
	return "check_requisitions"
}

// ToDomain converts the model to a domain check requisition
func (m *CheckRequisitionModel) ToDomain() *payables.CheckRequisition {
	invoices := make([]*payables.Invoice, 0, len(m.Invoices))
	for _, inv := range m.Invoices {
		invoices = append(invoices, inv.ToDomain())
	}
	return &payables.CheckRequisition{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		RequisitionNumber: m.RequisitionNumber,
		PayeeName:         m.PayeeName,
		PhpAmount:         m.PhpAmount,
		Status:            payables.RequisitionStatus(m.Status),
		RequestDate:       m.RequestDate,
		ApprovedAt:        m.ApprovedAt,
		VendorID:          m.VendorID,
		ProjectID:         m.ProjectID,
		Invoices:          invoices,
	}
}

// FromDomain populates the model from a domain check requisition.
// The invoice association is managed through the join table separately.
func (m *CheckRequisitionModel) FromDomain(cr *payables.CheckRequisition) {
	m.FromDomainAggregateRoot(cr.BaseAggregateRoot)
	m.RequisitionNumber = cr.RequisitionNumber
	m.PayeeName = cr.PayeeName
	m.PhpAmount = cr.PhpAmount
	m.Status = string(cr.Status)
	m.RequestDate = cr.RequestDate
	m.ApprovedAt = cr.ApprovedAt
	m.VendorID = cr.VendorID
	m.ProjectID = cr.ProjectID
}

// DisbursementModel is the persistence model for disbursements
type DisbursementModel struct {
	AggregateModel
	CheckVoucherNumber        *string `gorm:"size:50;uniqueIndex"`
	DateCheckPrinting         *time.Time
	DateCheckScheduled        *time.Time `gorm:"index"`
	DateCheckReleasedToVendor *time.Time `gorm:"index"`
	UndoExpiresAt             *time.Time
	Remarks                   string                   `gorm:"type:text"`
	Requisitions              []*CheckRequisitionModel `gorm:"many2many:disbursement_check_requisitions;joinForeignKey:DisbursementID;joinReferences:CheckRequisitionID"`
}

// TableName returns the table name
func (DisbursementModel) TableName() string {
	return "disbursements"
}

// ToDomain converts the model to a domain disbursement
func (m *DisbursementModel) ToDomain() *payables.Disbursement {
	requisitions := make([]*payables.CheckRequisition, 0, len(m.Requisitions))
	for _, cr := range m.Requisitions {
		requisitions = append(requisitions, cr.ToDomain())
	}
	return &payables.Disbursement{
		BaseAggregateRoot:         m.ToDomainAggregateRoot(),
		CheckVoucherNumber:        m.CheckVoucherNumber,
		DateCheckPrinting:         m.DateCheckPrinting,
		DateCheckScheduled:        m.DateCheckScheduled,
		DateCheckReleasedToVendor: m.DateCheckReleasedToVendor,
		UndoExpiresAt:             m.UndoExpiresAt,
		Remarks:                   m.Remarks,
		Requisitions:              requisitions,
	}
}

// FromDomain populates the model from a domain disbursement.
// The requisition links are managed through the pivot table separately.
func (m *DisbursementModel) FromDomain(d *payables.Disbursement) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.CheckVoucherNumber = d.CheckVoucherNumber
	m.DateCheckPrinting = d.DateCheckPrinting
	m.DateCheckScheduled = d.DateCheckScheduled
	m.DateCheckReleasedToVendor = d.DateCheckReleasedToVendor
	m.UndoExpiresAt = d.UndoExpiresAt
	m.Remarks = d.Remarks
}

// DisbursementRequisitionLink is the pivot row linking a disbursement to a
// check requisition.
type DisbursementRequisitionLink struct {
	DisbursementID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	CheckRequisitionID uuid.UUID `gorm:"type:uuid;primaryKey;uniqueIndex"`
	CreatedAt          time.Time `gorm:"not null"`
}

// TableName returns the table name
func (DisbursementRequisitionLink) TableName() string {
	return "disbursement_check_requisitions"
}

// AttachmentModel is the persistence model for file attachments
type AttachmentModel struct {
	BaseModel
	AttachableType string    `gorm:"size:50;not null;index:idx_attachments_attachable"`
	AttachableID   uuid.UUID `gorm:"type:uuid;not null;index:idx_attachments_attachable"`
	FileName       string    `gorm:"size:255;not null"`
	ContentType    string    `gorm:"size:100"`
	SizeBytes      int64     `gorm:"not null"`
	StorageKey     string    `gorm:"size:512;not null"`
	UploadedBy     uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name
func (AttachmentModel) TableName() string {
	return "attachments"
}

// ToDomain converts the model to a domain attachment
func (m *AttachmentModel) ToDomain() *payables.Attachment {
	return &payables.Attachment{
		BaseEntity:     m.BaseModel.ToDomain(),
		AttachableType: payables.AttachableType(m.AttachableType),
		AttachableID:   m.AttachableID,
		FileName:       m.FileName,
		ContentType:    m.ContentType,
		SizeBytes:      m.SizeBytes,
		StorageKey:     m.StorageKey,
		UploadedBy:     m.UploadedBy,
	}
}

// FromDomain populates the model from a domain attachment
func (m *AttachmentModel) FromDomain(a *payables.Attachment) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.AttachableType = string(a.AttachableType)
	m.AttachableID = a.AttachableID
	m.FileName = a.FileName
	m.ContentType = a.ContentType
	m.SizeBytes = a.SizeBytes
	m.StorageKey = a.StorageKey
	m.UploadedBy = a.UploadedBy
}
