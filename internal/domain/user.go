package domain

import (
	"time"
)

// Role is a user's role inside their team
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// CanManageInvoices reports whether the role may update, convert or delete invoices
func (r Role) CanManageInvoices() bool {
	return r == RoleOwner || r == RoleAdmin
}

// User represents a user in the system
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	TeamID       string    `json:"teamId,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BusinessProfile holds the default bill-from details of a user's business
type BusinessProfile struct {
	UserID       string `json:"userId"`
	BusinessName string `json:"businessName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	TaxID        string `json:"taxId"`
}

// AsParty converts the profile into bill-from party details
func (p *BusinessProfile) AsParty() Party {
	return Party{
		Name:    p.BusinessName,
		Email:   p.Email,
		Phone:   p.Phone,
		Address: p.Address,
		TaxID:   p.TaxID,
	}
}
