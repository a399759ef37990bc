// Package org manages fuel supplier organizations: registration with a
// unique 5-character base-36 code, addresses, status changes, and the
// balance views backed by the ledger.
package org

import (
	"context"
	"strings"

	"lcfs-backend/internal/application/balancecache"
	"lcfs-backend/internal/application/ledger"
	"lcfs-backend/internal/domain"

	"gorm.io/gorm"
)

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// codeRetries bounds the unique-violation retry loop on create. Two
// concurrent creates can race to the same next code; the loser recomputes.
const codeRetries = 3

type Service struct {
	DB     *gorm.DB
	Ledger *ledger.Service
	Cache  *balancecache.Cache
}

// CreateOrgInput carries the registration payload.
type CreateOrgInput struct {
	Name          string  `json:"name"`
	EDRMSRecord   *string `json:"edrms_record"`
	Status        string  `json:"status"`
	StreetAddress string  `json:"street_address"`
	City          string  `json:"city"`
	Province      string  `json:"province"`
	PostalCode    string  `json:"postal_code"`
	Country       string  `json:"country"`
}

// encodeCode renders n as exactly five base-36 characters.
func encodeCode(n int64) string {
	var b [5]byte
	for i := 4; i >= 0; i-- {
		b[i] = codeAlphabet[n%36]
		n /= 36
	}
	return string(b[:])
}

// decodeCode is the inverse of encodeCode; malformed codes return -1.
func decodeCode(code string) int64 {
	if len(code) != 5 {
		return -1
	}
	var n int64
	for i := 0; i < 5; i++ {
		idx := strings.IndexByte(codeAlphabet, code[i])
		if idx < 0 {
			return -1
		}
		n = n*36 + int64(idx)
	}
	return n
}

// nextCode assigns max existing code plus one. Codes are never reused,
// even after an organization is canceled or soft-deleted.
func nextCode(tx *gorm.DB) (string, error) {
	var codes []string
	if err := tx.Unscoped().Model(&domain.Organization{}).
		Order("code DESC").Limit(1).Pluck("code", &codes).Error; err != nil {
		return "", err
	}
	next := int64(0)
	if len(codes) > 0 {
		if n := decodeCode(codes[0]); n >= 0 {
			next = n + 1
		}
	}
	if next > domain.OrgCodeMax {
		return "", domain.WrapError(domain.ErrConflict, "organization code space exhausted")
	}
	return encodeCode(next), nil
}

// Create registers an organization, assigning the next sequential code.
// Government only.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateOrgInput) (*domain.Organization, error) {
	if !actor.IsGovernment() || !actor.HasRole(domain.RoleAdministrator) {
		return nil, domain.WrapError(domain.ErrPermissionDenied, "role %s required to register an organization", domain.RoleAdministrator)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.WrapError(domain.ErrValidation, "organization name is required")
	}
	status := in.Status
	if status == "" {
		status = domain.OrgStatusUnregistered
	}

	var org *domain.Organization
	var lastErr error
	for attempt := 0; attempt < codeRetries; attempt++ {
		lastErr = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			code, err := nextCode(tx)
			if err != nil {
				return err
			}
			org = &domain.Organization{
				Name:        strings.TrimSpace(in.Name),
				Code:        code,
				Status:      status,
				EDRMSRecord: in.EDRMSRecord,
			}
			if err := tx.Create(org).Error; err != nil {
				return err
			}
			if in.StreetAddress != "" || in.City != "" {
				return tx.Create(&domain.OrganizationAddress{
					OrganizationID: org.ID,
					AddressType:    "service",
					StreetAddress:  in.StreetAddress,
					City:           in.City,
					Province:       in.Province,
					PostalCode:     in.PostalCode,
					Country:        in.Country,
				}).Error
			}
			return nil
		})
		if lastErr == nil {
			return org, nil
		}
		if !isUniqueViolation(lastErr) {
			return nil, lastErr
		}
	}
	return nil, domain.WrapError(domain.ErrConflict, "could not assign a unique organization code")
}

// SetStatus moves an organization between registration states.
func (s *Service) SetStatus(ctx context.Context, actor domain.Actor, orgID uint, status string) (*domain.Organization, error) {
	if !actor.IsGovernment() || !actor.HasRole(domain.RoleAdministrator) {
		return nil, domain.WrapError(domain.ErrPermissionDenied, "role %s required to change organization status", domain.RoleAdministrator)
	}
	switch status {
	case domain.OrgStatusRegistered, domain.OrgStatusUnregistered, domain.OrgStatusSuspended, domain.OrgStatusCanceled:
	default:
		return nil, domain.WrapError(domain.ErrValidation, "unknown organization status %q", status)
	}
	var org domain.Organization
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&org, orgID).Error; err != nil {
			return domain.WrapError(domain.ErrNotFound, "organization %d not found", orgID)
		}
		org.Status = status
		return tx.Save(&org).Error
	})
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// BalanceView is an organization with its ledger position.
type BalanceView struct {
	Organization     domain.Organization `json:"organization"`
	TotalBalance     int64               `json:"total_balance"`
	ReservedBalance  int64               `json:"reserved_balance"`
	AvailableBalance int64               `json:"available_balance"`
}

// Get loads one organization with its current balances. The available
// balance for the year is served from the cache when primed.
func (s *Service) Get(ctx context.Context, orgID uint, year int) (*BalanceView, error) {
	var org domain.Organization
	err := s.DB.WithContext(ctx).First(&org, orgID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, domain.WrapError(domain.ErrNotFound, "organization %d not found", orgID)
	}
	if err != nil {
		return nil, err
	}

	available, ok := s.Cache.Get(ctx, orgID, year)
	if !ok {
		available, err = s.Ledger.Available(ctx, orgID, year)
		if err != nil {
			return nil, err
		}
		s.Cache.Set(ctx, orgID, year, available)
	}
	return &BalanceView{
		Organization:     org,
		TotalBalance:     org.TotalBalance,
		ReservedBalance:  org.ReservedBalance,
		AvailableBalance: available,
	}, nil
}

// List returns all organizations ordered by name. Suppliers use it to
// pick transfer counterparties, so it is not government-scoped.
func (s *Service) List(ctx context.Context) ([]domain.Organization, error) {
	var orgs []domain.Organization
	err := s.DB.WithContext(ctx).Order("name ASC").Find(&orgs).Error
	return orgs, err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
