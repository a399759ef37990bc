// Package ledger owns the append-only compliance-unit ledger. Every
// balance-affecting write in the system goes through one of the three
// operations here, inside the caller's transaction, so the entry and the
// entity that caused it commit or roll back together.
package ledger

import (
	"context"
	"time"

	"lcfs-backend/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	DB *gorm.DB
}

// lockOrganization loads the organization row under FOR UPDATE where the
// dialect supports it. The org row serializes all ledger writes for one
// organization.
func lockOrganization(tx *gorm.DB, orgID uint) (*domain.Organization, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var org domain.Organization
	if err := q.First(&org, orgID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.WrapError(domain.ErrNotFound, "organization %d not found", orgID)
		}
		return nil, err
	}
	return &org, nil
}

// LockOrganizationPair locks both parties of a transfer in ascending id
// order so concurrent transfers between the same pair cannot deadlock.
func (s *Service) LockOrganizationPair(tx *gorm.DB, a, b uint) (*domain.Organization, *domain.Organization, error) {
	first, second := a, b
	if b < a {
		first, second = b, a
	}
	o1, err := lockOrganization(tx, first)
	if err != nil {
		return nil, nil, err
	}
	o2, err := lockOrganization(tx, second)
	if err != nil {
		return nil, nil, err
	}
	if first == a {
		return o1, o2, nil
	}
	return o2, o1, nil
}

// Reserve appends a Reserved entry for the organization. When units are
// negative it first checks that the sender can cover the withdrawal on
// top of everything already reserved, and adds the magnitude to the
// organization's reserved_balance.
func (s *Service) Reserve(tx *gorm.DB, orgID uint, units int64) (*domain.Transaction, error) {
	org, err := lockOrganization(tx, orgID)
	if err != nil {
		return nil, err
	}
	if units < 0 && org.TotalBalance-org.ReservedBalance+units < 0 {
		return nil, domain.WrapError(domain.ErrInsufficientBalance,
			"organization %d has %d available (%d reserved), cannot reserve %d",
			orgID, org.TotalBalance, org.ReservedBalance, units)
	}
	entry := &domain.Transaction{
		OrganizationID:  orgID,
		ComplianceUnits: units,
		Action:          domain.ActionReserved,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	if units < 0 {
		org.ReservedBalance += -units
		if err := tx.Model(&domain.Organization{}).Where("id = ?", orgID).
			Update("reserved_balance", org.ReservedBalance).Error; err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// Release negates a prior reservation. Calling it twice for the same
// entry is a no-op: the existing Released row is returned.
func (s *Service) Release(tx *gorm.DB, reservedEntryID uint) (*domain.Transaction, error) {
	var reserved domain.Transaction
	if err := tx.First(&reserved, reservedEntryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.WrapError(domain.ErrNotFound, "ledger entry %d not found", reservedEntryID)
		}
		return nil, err
	}
	if reserved.Action != domain.ActionReserved {
		return nil, domain.WrapError(domain.ErrValidation, "ledger entry %d is not a reservation", reservedEntryID)
	}

	var existing domain.Transaction
	err := tx.Where("releases_entry_id = ?", reservedEntryID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	org, err := lockOrganization(tx, reserved.OrganizationID)
	if err != nil {
		return nil, err
	}
	entry := &domain.Transaction{
		OrganizationID:  reserved.OrganizationID,
		ComplianceUnits: -reserved.ComplianceUnits,
		Action:          domain.ActionReleased,
		ReleasesEntryID: &reserved.ID,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	if reserved.ComplianceUnits < 0 {
		org.ReservedBalance -= -reserved.ComplianceUnits
		if org.ReservedBalance < 0 {
			org.ReservedBalance = 0
		}
		if err := tx.Model(&domain.Organization{}).Where("id = ?", org.ID).
			Update("reserved_balance", org.ReservedBalance).Error; err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// SettleReservation drops a reservation out of the reserved aggregate
// without writing a Released row. Used when a transfer is recorded: the
// two Adjustment commits supersede the reservation, and the observable
// contract is only that reserved_balance no longer counts it. The state
// machines guarantee a reservation is settled or released at most once.
func (s *Service) SettleReservation(tx *gorm.DB, reservedEntryID uint) error {
	var reserved domain.Transaction
	if err := tx.First(&reserved, reservedEntryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.WrapError(domain.ErrNotFound, "ledger entry %d not found", reservedEntryID)
		}
		return err
	}
	if reserved.Action != domain.ActionReserved || reserved.ComplianceUnits >= 0 {
		return nil
	}
	org, err := lockOrganization(tx, reserved.OrganizationID)
	if err != nil {
		return err
	}
	org.ReservedBalance -= -reserved.ComplianceUnits
	if org.ReservedBalance < 0 {
		org.ReservedBalance = 0
	}
	return tx.Model(&domain.Organization{}).Where("id = ?", org.ID).
		Update("reserved_balance", org.ReservedBalance).Error
}

// Commit appends a final Adjustment entry and writes the organization's
// total_balance through. Negative commits must be covered by the
// available balance net of outstanding reservations.
func (s *Service) Commit(tx *gorm.DB, orgID uint, units int64) (*domain.Transaction, error) {
	org, err := lockOrganization(tx, orgID)
	if err != nil {
		return nil, err
	}
	if units < 0 && org.TotalBalance-org.ReservedBalance+units < 0 {
		return nil, domain.WrapError(domain.ErrInsufficientBalance,
			"organization %d has %d available (%d reserved), cannot commit %d",
			orgID, org.TotalBalance, org.ReservedBalance, units)
	}
	entry := &domain.Transaction{
		OrganizationID:  orgID,
		ComplianceUnits: units,
		Action:          domain.ActionAdjustment,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	org.TotalBalance += units
	if err := tx.Model(&domain.Organization{}).Where("id = ?", orgID).
		Update("total_balance", org.TotalBalance).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// Available sums Adjustment entries created in or before the given
// compliance year. This is the authoritative balance; the columns on the
// organization row and the Redis cache mirror it.
func (s *Service) Available(ctx context.Context, orgID uint, year int) (int64, error) {
	return s.AvailableIn(s.DB.WithContext(ctx), orgID, year)
}

// AvailableIn is Available scoped to an open transaction.
func (s *Service) AvailableIn(tx *gorm.DB, orgID uint, year int) (int64, error) {
	cutoff := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	var total *int64
	err := tx.Model(&domain.Transaction{}).
		Where("organization_id = ? AND action = ? AND create_date < ?", orgID, domain.ActionAdjustment, cutoff).
		Select("SUM(compliance_units)").Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// Reserved returns the organization's outstanding reserved total (the
// write-through column; positive magnitude).
func (s *Service) Reserved(ctx context.Context, orgID uint) (int64, error) {
	var org domain.Organization
	if err := s.DB.WithContext(ctx).First(&org, orgID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, domain.WrapError(domain.ErrNotFound, "organization %d not found", orgID)
		}
		return 0, err
	}
	return org.ReservedBalance, nil
}

// EarliestEntryYear returns the year of the oldest ledger entry for any
// organization, or the current year when the ledger is empty. The balance
// cache uses it to bound its priming loop.
func (s *Service) EarliestEntryYear(ctx context.Context) (int, error) {
	var first domain.Transaction
	err := s.DB.WithContext(ctx).Order("create_date ASC").First(&first).Error
	if err == gorm.ErrRecordNotFound {
		return time.Now().UTC().Year(), nil
	}
	if err != nil {
		return 0, err
	}
	return first.CreateDate.UTC().Year(), nil
}
