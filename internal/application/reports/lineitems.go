package reports

import (
	"context"

	"lcfs-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Line-item editing. Rows are immutable per report version: editing a row
// that belongs to the current (editable) report version updates it in
// place; editing a row inherited from an earlier version writes a new row
// in the same group at the current version. Deleting an inherited row
// writes a DELETE tombstone.

func (s *Service) ensureEditable(tx *gorm.DB, actor domain.Actor, reportID uint) (*domain.ComplianceReport, error) {
	r, err := s.lockReport(tx, reportID)
	if err != nil {
		return nil, err
	}
	if !r.Editable() {
		return nil, domain.WrapError(domain.ErrInvalidTransition, "report %d is %s; line items are frozen", reportID, r.CurrentStatus)
	}
	if r.CurrentStatus == domain.ReportDraft && !actor.ActsFor(r.OrganizationID) {
		return nil, domain.WrapError(domain.ErrPermissionDenied, "only the reporting organization may edit a draft report")
	}
	if r.CurrentStatus == domain.ReportAnalystAdjustment && !actor.IsGovernment() {
		return nil, domain.WrapError(domain.ErrPermissionDenied, "only government may edit a report in analyst adjustment")
	}
	return r, nil
}

func (s *Service) validateProvision(tx *gorm.DB, provisionID uint, fuelCodeID *uint) error {
	var prov domain.ProvisionOfTheAct
	if err := tx.First(&prov, provisionID).Error; err != nil {
		return domain.WrapError(domain.ErrValidation, "unknown provision %d", provisionID)
	}
	if prov.Method == domain.ProvisionFuelCode && fuelCodeID == nil {
		return domain.WrapError(domain.ErrValidation, "provision %q requires a fuel code", prov.Name)
	}
	if prov.Method != domain.ProvisionFuelCode && fuelCodeID != nil {
		return domain.WrapError(domain.ErrValidation, "provision %q does not take a fuel code", prov.Name)
	}
	return nil
}

// AddFuelSupply appends a new supply row to an editable report.
func (s *Service) AddFuelSupply(ctx context.Context, actor domain.Actor, reportID uint, row domain.FuelSupply) (*domain.FuelSupply, error) {
	if !row.Quantity.IsPositive() {
		return nil, domain.WrapError(domain.ErrValidation, "quantity must be positive")
	}
	var out *domain.FuelSupply
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.ensureEditable(tx, actor, reportID)
		if err != nil {
			return err
		}
		if err := s.validateProvision(tx, row.ProvisionID, row.FuelCodeID); err != nil {
			return err
		}
		row.ComplianceReportID = r.ID
		row.VersionedRow = domain.VersionedRow{GroupUUID: uuid.New(), Version: r.Version, ActionType: domain.ActionTypeCreate}
		out = &row
		return tx.Create(out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateFuelSupply edits the effective row of a group for the report.
func (s *Service) UpdateFuelSupply(ctx context.Context, actor domain.Actor, reportID uint, groupUUID uuid.UUID, row domain.FuelSupply) (*domain.FuelSupply, error) {
	if !row.Quantity.IsPositive() {
		return nil, domain.WrapError(domain.ErrValidation, "quantity must be positive")
	}
	var out *domain.FuelSupply
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.ensureEditable(tx, actor, reportID)
		if err != nil {
			return err
		}
		if err := s.validateProvision(tx, row.ProvisionID, row.FuelCodeID); err != nil {
			return err
		}
		ids, err := reportVersionIDs(tx, r)
		if err != nil {
			return err
		}
		var current domain.FuelSupply
		if err := tx.Where("group_uuid = ? AND compliance_report_id IN ?", groupUUID, ids).
			Order("version DESC").First(&current).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return domain.WrapError(domain.ErrNotFound, "fuel supply group %s not found", groupUUID)
			}
			return err
		}
		if current.ActionType == domain.ActionTypeDelete {
			return domain.WrapError(domain.ErrNotFound, "fuel supply group %s was deleted", groupUUID)
		}

		apply := func(dst *domain.FuelSupply) {
			dst.FuelTypeID = row.FuelTypeID
			dst.FuelCategoryID = row.FuelCategoryID
			dst.EndUseTypeID = row.EndUseTypeID
			dst.ProvisionID = row.ProvisionID
			dst.FuelCodeID = row.FuelCodeID
			dst.Quantity = row.Quantity
			dst.Units = row.Units
			dst.CIOfFuel = row.CIOfFuel
			dst.EnergyDensity = row.EnergyDensity
		}

		if current.ComplianceReportID == r.ID {
			apply(&current)
			out = &current
			return tx.Save(out).Error
		}
		next := current
		next.ID = 0
		next.ComplianceReportID = r.ID
		next.Version = r.Version
		next.ActionType = domain.ActionTypeUpdate
		apply(&next)
		out = &next
		return tx.Create(out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteFuelSupply removes a group from the report: hard delete for rows
// born in this version, tombstone for inherited ones.
func (s *Service) DeleteFuelSupply(ctx context.Context, actor domain.Actor, reportID uint, groupUUID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.ensureEditable(tx, actor, reportID)
		if err != nil {
			return err
		}
		ids, err := reportVersionIDs(tx, r)
		if err != nil {
			return err
		}
		var current domain.FuelSupply
		if err := tx.Where("group_uuid = ? AND compliance_report_id IN ?", groupUUID, ids).
			Order("version DESC").First(&current).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return domain.WrapError(domain.ErrNotFound, "fuel supply group %s not found", groupUUID)
			}
			return err
		}
		if current.ComplianceReportID == r.ID && current.ActionType == domain.ActionTypeCreate && current.Version == r.Version {
			return tx.Delete(&current).Error
		}
		tombstone := domain.FuelSupply{
			ComplianceReportID: r.ID,
			VersionedRow:       domain.VersionedRow{GroupUUID: groupUUID, Version: r.Version, ActionType: domain.ActionTypeDelete},
			FuelTypeID:         current.FuelTypeID,
			FuelCategoryID:     current.FuelCategoryID,
			ProvisionID:        current.ProvisionID,
			Quantity:           current.Quantity,
		}
		return tx.Create(&tombstone).Error
	})
}

// AddFuelExport appends an export row.
func (s *Service) AddFuelExport(ctx context.Context, actor domain.Actor, reportID uint, row domain.FuelExport) (*domain.FuelExport, error) {
	if !row.Quantity.IsPositive() {
		return nil, domain.WrapError(domain.ErrValidation, "quantity must be positive")
	}
	var out *domain.FuelExport
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.ensureEditable(tx, actor, reportID)
		if err != nil {
			return err
		}
		if err := s.validateProvision(tx, row.ProvisionID, row.FuelCodeID); err != nil {
			return err
		}
		row.ComplianceReportID = r.ID
		row.VersionedRow = domain.VersionedRow{GroupUUID: uuid.New(), Version: r.Version, ActionType: domain.ActionTypeCreate}
		out = &row
		return tx.Create(out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddNotionalTransfer appends a notional transfer row.
func (s *Service) AddNotionalTransfer(ctx context.Context, actor domain.Actor, reportID uint, row domain.NotionalTransfer) (*domain.NotionalTransfer, error) {
	if !row.Quantity.IsPositive() {
		return nil, domain.WrapError(domain.ErrValidation, "quantity must be positive")
	}
	if row.ReceivedOrTransferred != domain.NotionalReceived && row.ReceivedOrTransferred != domain.NotionalTransferred {
		return nil, domain.WrapError(domain.ErrValidation, "received_or_transferred must be Received or Transferred")
	}
	var out *domain.NotionalTransfer
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.ensureEditable(tx, actor, reportID)
		if err != nil {
			return err
		}
		row.ComplianceReportID = r.ID
		row.VersionedRow = domain.VersionedRow{GroupUUID: uuid.New(), Version: r.Version, ActionType: domain.ActionTypeCreate}
		out = &row
		return tx.Create(out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddOtherUse appends an other-use row.
func (s *Service) AddOtherUse(ctx context.Context, actor domain.Actor, reportID uint, row domain.OtherUse) (*domain.OtherUse, error) {
	if !row.Quantity.IsPositive() {
		return nil, domain.WrapError(domain.ErrValidation, "quantity must be positive")
	}
	var out *domain.OtherUse
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.ensureEditable(tx, actor, reportID)
		if err != nil {
			return err
		}
		row.ComplianceReportID = r.ID
		row.VersionedRow = domain.VersionedRow{GroupUUID: uuid.New(), Version: r.Version, ActionType: domain.ActionTypeCreate}
		out = &row
		return tx.Create(out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddAllocationAgreement appends an allocation agreement row.
func (s *Service) AddAllocationAgreement(ctx context.Context, actor domain.Actor, reportID uint, row domain.AllocationAgreement) (*domain.AllocationAgreement, error) {
	if !row.Quantity.IsPositive() {
		return nil, domain.WrapError(domain.ErrValidation, "quantity must be positive")
	}
	if row.AllocationType != domain.AllocationFrom && row.AllocationType != domain.AllocationTo {
		return nil, domain.WrapError(domain.ErrValidation, "allocation_type must be %q or %q", domain.AllocationFrom, domain.AllocationTo)
	}
	var out *domain.AllocationAgreement
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.ensureEditable(tx, actor, reportID)
		if err != nil {
			return err
		}
		if err := s.validateProvision(tx, row.ProvisionID, row.FuelCodeID); err != nil {
			return err
		}
		row.ComplianceReportID = r.ID
		row.VersionedRow = domain.VersionedRow{GroupUUID: uuid.New(), Version: r.Version, ActionType: domain.ActionTypeCreate}
		out = &row
		return tx.Create(out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func reportVersionIDs(tx *gorm.DB, r *domain.ComplianceReport) ([]uint, error) {
	var ids []uint
	err := tx.Model(&domain.ComplianceReport{}).
		Where("group_uuid = ? AND version <= ?", r.GroupUUID, r.Version).
		Pluck("id", &ids).Error
	return ids, err
}
