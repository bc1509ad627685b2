package shop

import (
	"errors"
	"strings"
	"time"

	"github.com/hugohenrick/kommand/pkg/domain"
)

var (
	ErrEmptyName = errors.New("shop name cannot be empty")
)

// Status é o estado derivado da loja
type Status string

const (
	StatusAll       Status = "all"
	StatusActive    Status = "active"
	StatusPending   Status = "pending"
	StatusSuspended Status = "suspended"
)

// Shop representa uma loja do marketplace
type Shop struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category,omitempty"`
	OwnerName    string    `json:"owner_name,omitempty"`
	OwnerEmail   string    `json:"owner_email,omitempty"`
	OwnerPhone   string    `json:"owner_phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	City         string    `json:"city,omitempty"`
	Pincode      string    `json:"pincode,omitempty"`
	Rating       float64   `json:"rating"`
	TotalOrders  int       `json:"total_orders"`
	TotalRevenue float64   `json:"total_revenue"`
	Active       bool      `json:"is_active"`
	Verified     bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewShop cria uma loja aguardando verificação
func NewShop(name, category, ownerName, ownerEmail, city string) (*Shop, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	now := time.Now()
	return &Shop{
		Name:       name,
		Category:   category,
		OwnerName:  ownerName,
		OwnerEmail: ownerEmail,
		City:       city,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Status deriva o estado a partir dos flags
func (s *Shop) Status() Status {
	switch {
	case !s.Active:
		return StatusSuspended
	case !s.Verified:
		return StatusPending
	default:
		return StatusActive
	}
}

// Visible informa se a loja aparece para clientes
func (s *Shop) Visible() bool {
	return s.Status() == StatusActive
}

// Verify aprova a loja
func (s *Shop) Verify() error {
	if s.Verified {
		return domain.NewRuleError("shop", "shop %d is already verified", s.ID)
	}
	s.Verified = true
	s.UpdatedAt = time.Now()
	return nil
}

// Suspend desativa a loja
func (s *Shop) Suspend() error {
	if !s.Active {
		return domain.NewRuleError("shop", "shop %d is already suspended", s.ID)
	}
	s.Active = false
	s.UpdatedAt = time.Now()
	return nil
}

// Activate reativa a loja
func (s *Shop) Activate() error {
	if s.Active {
		return domain.NewRuleError("shop", "shop %d is already active", s.ID)
	}
	s.Active = true
	s.UpdatedAt = time.Now()
	return nil
}

// RecordSale atualiza as métricas após um pedido
func (s *Shop) RecordSale(amount float64) {
	s.TotalOrders++
	s.TotalRevenue += amount
	s.UpdatedAt = time.Now()
}
