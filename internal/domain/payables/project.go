package payables

import (
	"github.com/payables/backend/internal/domain/shared"
)

// Project groups purchase orders under a single capital expenditure request.
type Project struct {
	shared.BaseAggregateRoot
	ProjectTitle string `json:"project_title"`
	CerNumber    string `json:"cer_number"`
}

// NewProject creates a new project
func NewProject(title, cerNumber string) (*Project, error) {
	if title == "" {
		return nil, shared.NewDomainError("INVALID_PROJECT_TITLE", "Project title cannot be empty")
	}
	return &Project{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProjectTitle:      title,
		CerNumber:         cerNumber,
	}, nil
}

// Update changes the project title and CER number
func (p *Project) Update(title, cerNumber string) error {
	if title == "" {
		return shared.NewDomainError("INVALID_PROJECT_TITLE", "Project title cannot be empty")
	}
	p.ProjectTitle = title
	p.CerNumber = cerNumber
	p.Touch()
	p.IncrementVersion()
	return nil
}
