// Package domain holds the lead DTOs and ports
package domain

import (
	"time"

	"leadfunnel/internal/core/leadscore"
)

// LeadInput is a contact form submission
type LeadInput struct {
	FirstName string `json:"first_name,omitempty" validate:"omitempty,max=100" example:"Ada"`
	LastName  string `json:"last_name,omitempty" validate:"omitempty,max=100" example:"Lovelace"`
	Email     string `json:"email" validate:"required,email,max=254" example:"ada@clinic-health.com"`
	Company   string `json:"company,omitempty" validate:"omitempty,max=200" example:"Northside Clinic"`
	Website   string `json:"website,omitempty" validate:"omitempty,max=2048" example:"https://northside.example"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=40" example:"+1 555 0100"`
	Service   string `json:"service,omitempty" validate:"omitempty,max=64" example:"growth"`
	Message   string `json:"message,omitempty" validate:"omitempty,max=5000" example:"We need help ASAP, budget approved."`
	Source    string `json:"source,omitempty" validate:"omitempty,max=64" example:"pricing_inquiry"`
}

// Submission converts the input for the scorer
func (in LeadInput) Submission(at time.Time) leadscore.Submission {
	return leadscore.Submission{
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      in.Email,
		Company:    in.Company,
		Website:    in.Website,
		Phone:      in.Phone,
		Service:    in.Service,
		Message:    in.Message,
		Source:     in.Source,
		ReceivedAt: at,
	}
}

// ScoreOutput is a scored submission
type ScoreOutput struct {
	Total     int                 `json:"total" example:"100"`
	Breakdown leadscore.Breakdown `json:"breakdown"`
	Tags      []string            `json:"tags"`
	Priority  leadscore.Priority  `json:"priority" example:"urgent"`
	Industry  string              `json:"industry,omitempty" example:"healthcare"`
}

// CreateOutput is returned after a lead is stored
type CreateOutput struct {
	ID    string      `json:"id" example:"6f1c2b3a-9d4e-4f7a-8b2c-1d2e3f4a5b6c"`
	Score ScoreOutput `json:"score"`
}

// LookupInput addresses one stored lead
type LookupInput struct {
	ID string `json:"id" validate:"required,uuid"`
}

// Lead is a stored lead
type Lead struct {
	ID         string      `json:"id"`
	FirstName  string      `json:"first_name,omitempty"`
	LastName   string      `json:"last_name,omitempty"`
	Email      string      `json:"email"`
	Company    string      `json:"company,omitempty"`
	Website    string      `json:"website,omitempty"`
	Phone      string      `json:"phone,omitempty"`
	Service    string      `json:"service,omitempty"`
	Message    string      `json:"message,omitempty"`
	Source     string      `json:"source,omitempty"`
	UserAgent  string      `json:"user_agent,omitempty"`
	Referrer   string      `json:"referrer,omitempty"`
	VisitorID  string      `json:"visitor_id,omitempty"`
	SessionIDs []string    `json:"session_ids,omitempty"`
	Score      ScoreOutput `json:"score"`
	CreatedAt  time.Time   `json:"created_at"`
}

// RequestMeta is what the transport knows about the submitter
type RequestMeta struct {
	UserAgent string
	Referrer  string
	VisitorID string
}
