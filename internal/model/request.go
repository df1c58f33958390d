package model

import "strings"

// EntityKind distinguishes the two enrichment paths.
type EntityKind string

const (
	KindPerson  EntityKind = "person"
	KindCompany EntityKind = "company"
)

// EnrichmentRequest describes the entity to enrich. Exactly one kind is set;
// the request is immutable once constructed.
type EnrichmentRequest struct {
	Kind EntityKind `json:"kind"`

	// Person fields.
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	FullName   string `json:"full_name,omitempty"`
	Company    string `json:"company,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
	Email      string `json:"email,omitempty"`

	// Company fields.
	CompanyName string `json:"company_name,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Website     string `json:"website,omitempty"`

	// Shared.
	Country      string `json:"country,omitempty"`
	ReportIntent string `json:"report_intent,omitempty"`
}

// EntityName returns the primary display name for the entity.
func (r EnrichmentRequest) EntityName() string {
	switch r.Kind {
	case KindCompany:
		return strings.TrimSpace(r.CompanyName)
	default:
		if full := strings.TrimSpace(r.FullName); full != "" {
			return full
		}
		return strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
	}
}

// Identified reports whether the request carries at least one identifying
// field. Requests that fail this check must be rejected before planning.
func (r EnrichmentRequest) Identified() bool {
	switch r.Kind {
	case KindPerson:
		return r.EntityName() != "" || strings.TrimSpace(r.ProfileURL) != "" || strings.TrimSpace(r.Email) != ""
	case KindCompany:
		return r.EntityName() != "" || strings.TrimSpace(r.Website) != ""
	default:
		return false
	}
}
