package summary

import (
	"github.com/google/uuid"

	"lcfs-backend/internal/domain"

	"gorm.io/gorm"
)

// reportVersions returns the ids of every report version in the group up
// to and including the given version, keyed by report id.
func reportVersions(tx *gorm.DB, report *domain.ComplianceReport) ([]uint, error) {
	var ids []uint
	err := tx.Model(&domain.ComplianceReport{}).
		Where("group_uuid = ? AND version <= ?", report.GroupUUID, report.Version).
		Order("version ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// pickEffective selects, per line-item group, the index of the row with
// the highest version; groups whose winning row is a DELETE tombstone are
// dropped. Input order does not matter.
func pickEffective(rows []domain.VersionedRow) []int {
	winner := map[uuid.UUID]int{}
	for i, row := range rows {
		if prev, ok := winner[row.GroupUUID]; !ok || rows[prev].Version < row.Version {
			winner[row.GroupUUID] = i
		}
	}
	out := make([]int, 0, len(winner))
	for _, i := range winner {
		if rows[i].ActionType == domain.ActionTypeDelete {
			continue
		}
		out = append(out, i)
	}
	return out
}

// EffectiveFuelSupplies resolves the fuel-supply rows in force for the
// given report version.
func (s *Service) EffectiveFuelSupplies(tx *gorm.DB, report *domain.ComplianceReport) ([]domain.FuelSupply, error) {
	ids, err := reportVersions(tx, report)
	if err != nil {
		return nil, err
	}
	var rows []domain.FuelSupply
	if err := tx.Where("compliance_report_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	versioned := make([]domain.VersionedRow, len(rows))
	for i := range rows {
		versioned[i] = rows[i].VersionedRow
	}
	var out []domain.FuelSupply
	for _, i := range pickEffective(versioned) {
		out = append(out, rows[i])
	}
	return out, nil
}

func (s *Service) EffectiveFuelExports(tx *gorm.DB, report *domain.ComplianceReport) ([]domain.FuelExport, error) {
	ids, err := reportVersions(tx, report)
	if err != nil {
		return nil, err
	}
	var rows []domain.FuelExport
	if err := tx.Where("compliance_report_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	versioned := make([]domain.VersionedRow, len(rows))
	for i := range rows {
		versioned[i] = rows[i].VersionedRow
	}
	var out []domain.FuelExport
	for _, i := range pickEffective(versioned) {
		out = append(out, rows[i])
	}
	return out, nil
}

func (s *Service) EffectiveNotionalTransfers(tx *gorm.DB, report *domain.ComplianceReport) ([]domain.NotionalTransfer, error) {
	ids, err := reportVersions(tx, report)
	if err != nil {
		return nil, err
	}
	var rows []domain.NotionalTransfer
	if err := tx.Where("compliance_report_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	versioned := make([]domain.VersionedRow, len(rows))
	for i := range rows {
		versioned[i] = rows[i].VersionedRow
	}
	var out []domain.NotionalTransfer
	for _, i := range pickEffective(versioned) {
		out = append(out, rows[i])
	}
	return out, nil
}

func (s *Service) EffectiveOtherUses(tx *gorm.DB, report *domain.ComplianceReport) ([]domain.OtherUse, error) {
	ids, err := reportVersions(tx, report)
	if err != nil {
		return nil, err
	}
	var rows []domain.OtherUse
	if err := tx.Where("compliance_report_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	versioned := make([]domain.VersionedRow, len(rows))
	for i := range rows {
		versioned[i] = rows[i].VersionedRow
	}
	var out []domain.OtherUse
	for _, i := range pickEffective(versioned) {
		out = append(out, rows[i])
	}
	return out, nil
}

func (s *Service) EffectiveAllocationAgreements(tx *gorm.DB, report *domain.ComplianceReport) ([]domain.AllocationAgreement, error) {
	ids, err := reportVersions(tx, report)
	if err != nil {
		return nil, err
	}
	var rows []domain.AllocationAgreement
	if err := tx.Where("compliance_report_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	versioned := make([]domain.VersionedRow, len(rows))
	for i := range rows {
		versioned[i] = rows[i].VersionedRow
	}
	var out []domain.AllocationAgreement
	for _, i := range pickEffective(versioned) {
		out = append(out, rows[i])
	}
	return out, nil
}
