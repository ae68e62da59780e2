// Package dto holds the response projections. Every DTO is an explicit
// allow-list of what the API exposes: the soft-delete marker, tenant foreign
// keys and anything credential-like never appear, and new model fields stay
// hidden until a DTO names them.
package dto

import (
	"time"

	"chatflow-service/internal/model"
)

// EnterpriseDTO is the public shape of an enterprise
type EnterpriseDTO struct {
	ID          string          `json:"id"`
	CreatedAt   time.Time       `json:"createdAt"`
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Connected   bool            `json:"connected"`
	PricingPlan *PricingPlanDTO `json:"pricingPlan,omitempty"`
}

func NewEnterpriseDTO(e *model.Enterprise) EnterpriseDTO {
	d := EnterpriseDTO{
		ID:        e.ID,
		CreatedAt: e.CreatedAt,
		Name:      e.Name,
		Phone:     e.Phone,
		Connected: e.Connected,
	}
	if e.PricingPlan != nil {
		plan := NewPricingPlanDTO(e.PricingPlan)
		d.PricingPlan = &plan
	}
	return d
}

// PricingPlanDTO is the public shape of a pricing plan
type PricingPlanDTO struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
}

func NewPricingPlanDTO(p *model.PricingPlan) PricingPlanDTO {
	return PricingPlanDTO{
		ID:          p.ID,
		CreatedAt:   p.CreatedAt,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
	}
}

// FlowDTO is the public shape of a flow, with its enabling plans summarized
type FlowDTO struct {
	ID           string           `json:"id"`
	CreatedAt    time.Time        `json:"createdAt"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	PricingPlans []PricingPlanDTO `json:"pricingPlans,omitempty"`
}

func NewFlowDTO(f *model.Flow) FlowDTO {
	d := FlowDTO{
		ID:          f.ID,
		CreatedAt:   f.CreatedAt,
		Name:        f.Name,
		Description: f.Description,
	}
	for i := range f.PricingPlans {
		d.PricingPlans = append(d.PricingPlans, NewPricingPlanDTO(&f.PricingPlans[i]))
	}
	return d
}

// FlowSummaryDTO is the short flow shape embedded in message responses
type FlowSummaryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MessageDTO is the public shape of a message
type MessageDTO struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	NumOrder  int             `json:"numOrder"`
	Body      string          `json:"body"`
	Flow      *FlowSummaryDTO `json:"flow,omitempty"`
}

func NewMessageDTO(m *model.Message) MessageDTO {
	d := MessageDTO{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		NumOrder:  m.NumOrder,
		Body:      m.Body,
	}
	if m.Flow != nil {
		d.Flow = &FlowSummaryDTO{ID: m.Flow.ID, Name: m.Flow.Name}
	}
	return d
}

// ClientDTO is the public shape of a client
type ClientDTO struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Username  string    `json:"username"`
	Phone     string    `json:"phone"`
}

func NewClientDTO(c *model.Client) ClientDTO {
	return ClientDTO{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		Username:  c.Username,
		Phone:     c.Phone,
	}
}

// ProfileDTO is the public shape of a profile. Email and role live in the
// identity provider and are merged in by the handler when known.
type ProfileDTO struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"createdAt"`
	Email      string         `json:"email,omitempty"`
	Role       string         `json:"role,omitempty"`
	Enterprise *EnterpriseDTO `json:"enterprise,omitempty"`
}

func NewProfileDTO(p *model.Profile) ProfileDTO {
	d := ProfileDTO{
		ID:        p.ID,
		CreatedAt: p.CreatedAt,
	}
	if p.Enterprise != nil {
		enterprise := NewEnterpriseDTO(p.Enterprise)
		d.Enterprise = &enterprise
	}
	return d
}
