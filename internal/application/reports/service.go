// Package reports drives the compliance report lifecycle: the version
// chain per (organization, period) group, the review state machine, the
// organization snapshot at submission, and the ledger commit at director
// assessment.
package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lcfs-backend/internal/application/balancecache"
	"lcfs-backend/internal/application/ledger"
	"lcfs-backend/internal/application/outbox"
	"lcfs-backend/internal/application/summary"
	"lcfs-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	DB      *gorm.DB
	Ledger  *ledger.Service
	Summary *summary.Service
	Outbox  *outbox.Service
	Cache   *balancecache.Cache
}

// CreateReportInput opens an original (version 0) report.
type CreateReportInput struct {
	OrganizationID     uint
	CompliancePeriod   int
	ReportingFrequency string
	Quarter            *int
}

// Create opens the original report of a new group. One non-terminal
// version per (organization, period, frequency) group is the rule; a
// second original for the same period is rejected.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateReportInput) (*domain.ComplianceReport, error) {
	if !actor.IsGovernment() && !actor.ActsFor(in.OrganizationID) {
		return nil, domain.WrapError(domain.ErrPermissionDenied, "cannot create a report for another organization")
	}
	if in.ReportingFrequency == "" {
		in.ReportingFrequency = domain.FrequencyAnnual
	}
	if in.ReportingFrequency == domain.FrequencyQuarterly && in.Quarter == nil {
		return nil, domain.WrapError(domain.ErrValidation, "quarterly reports require a quarter")
	}
	if in.CompliancePeriod < 2010 || in.CompliancePeriod > time.Now().UTC().Year()+1 {
		return nil, domain.WrapError(domain.ErrValidation, "compliance period %d out of range", in.CompliancePeriod)
	}

	var report *domain.ComplianceReport
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.ComplianceReport{}).
			Where("organization_id = ? AND compliance_period = ? AND reporting_frequency = ?",
				in.OrganizationID, in.CompliancePeriod, in.ReportingFrequency).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.WrapError(domain.ErrConflict, "a report for %d already exists; create a supplemental instead", in.CompliancePeriod)
		}
		nickname := "Original report"
		if in.ReportingFrequency == domain.FrequencyQuarterly {
			nickname = fmt.Sprintf("Early issuance report - Q%d", *in.Quarter)
		}
		report = &domain.ComplianceReport{
			OrganizationID:     in.OrganizationID,
			CompliancePeriod:   in.CompliancePeriod,
			GroupUUID:          uuid.New(),
			Version:            0,
			ReportingFrequency: in.ReportingFrequency,
			Quarter:            in.Quarter,
			Nickname:           nickname,
			CurrentStatus:      domain.ReportDraft,
		}
		if err := tx.Create(report).Error; err != nil {
			return err
		}
		if err := s.appendHistory(tx, report, actor); err != nil {
			return err
		}
		return s.Outbox.Append(tx, domain.EntityComplianceReport, report.ID, "", domain.ReportDraft, actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// CreateSupplemental opens the next version of an existing group. Allowed
// only while the group's latest version is Assessed/Reassessed. Supplier
// supplementals start in Draft; government-initiated reassessments start
// in Analyst_adjustment.
func (s *Service) CreateSupplemental(ctx context.Context, actor domain.Actor, reportID uint) (*domain.ComplianceReport, error) {
	var supplemental *domain.ComplianceReport
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		anchor, err := s.lockReport(tx, reportID)
		if err != nil {
			return err
		}
		if !actor.IsGovernment() && !actor.ActsFor(anchor.OrganizationID) {
			return domain.WrapError(domain.ErrPermissionDenied, "cannot create a supplemental for another organization")
		}

		var latest domain.ComplianceReport
		if err := tx.Where("group_uuid = ?", anchor.GroupUUID).
			Order("version DESC").First(&latest).Error; err != nil {
			return err
		}
		if !latest.Terminal() {
			return domain.WrapError(domain.ErrInvalidTransition,
				"latest version of the group is %s; a supplemental requires an assessed report", latest.CurrentStatus)
		}

		initiator := domain.InitiatorSupplier
		status := domain.ReportDraft
		if actor.IsGovernment() {
			if !actor.HasRole(domain.RoleAnalyst) {
				return domain.WrapError(domain.ErrPermissionDenied, "role %s required for a government reassessment", domain.RoleAnalyst)
			}
			initiator = domain.InitiatorGovernment
			status = domain.ReportAnalystAdjustment
		}

		supplemental = &domain.ComplianceReport{
			OrganizationID:        anchor.OrganizationID,
			CompliancePeriod:      anchor.CompliancePeriod,
			GroupUUID:             anchor.GroupUUID,
			Version:               latest.Version + 1,
			ChainIndex:            latest.ChainIndex + 1,
			ReportingFrequency:    anchor.ReportingFrequency,
			Quarter:               anchor.Quarter,
			Nickname:              fmt.Sprintf("Supplemental report %d", latest.ChainIndex+1),
			SupplementalInitiator: &initiator,
			CurrentStatus:         status,
		}
		if err := tx.Create(supplemental).Error; err != nil {
			// The unique (group_uuid, version) index turns a concurrent
			// supplemental race into a conflict for the loser.
			if isUniqueViolation(err) {
				return domain.WrapError(domain.ErrConflict, "a concurrent supplemental was created for this group")
			}
			return err
		}
		if err := s.appendHistory(tx, supplemental, actor); err != nil {
			return err
		}
		return s.Outbox.Append(tx, domain.EntityComplianceReport, supplemental.ID, "", status, actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return supplemental, nil
}

// Transition moves a report through the review graph. Submitted freezes
// the organization snapshot and recomputes the summary; Assessed commits
// the summary's net compliance units and locks the summary.
func (s *Service) Transition(ctx context.Context, actor domain.Actor, reportID uint, to string) (*domain.ComplianceReport, error) {
	var report *domain.ComplianceReport
	var balanceTouched bool

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.lockReport(tx, reportID)
		if err != nil {
			return err
		}
		target := to
		// A government-initiated supplemental assesses into Reassessed.
		if to == domain.ReportAssessed && r.SupplementalInitiator != nil &&
			*r.SupplementalInitiator == domain.InitiatorGovernment {
			target = domain.ReportReassessed
		}
		tr, ok := findTransition(r.CurrentStatus, to)
		if !ok {
			return domain.WrapError(domain.ErrInvalidTransition, "cannot move report from %s to %s", r.CurrentStatus, to)
		}
		if err := allowedActor(tr, r, actor); err != nil {
			return err
		}
		fromStatus := r.CurrentStatus

		switch to {
		case domain.ReportSubmitted:
			if err := s.freezeSnapshot(tx, r); err != nil {
				return err
			}
			if _, err := s.Summary.ComputeIn(tx, r); err != nil {
				return err
			}
		case domain.ReportAssessed:
			sum, err := s.Summary.ComputeIn(tx, r)
			if err != nil {
				return err
			}
			entry, err := s.Ledger.Commit(tx, r.OrganizationID, sum.NetComplianceUnits)
			if err != nil {
				return err
			}
			r.TransactionID = &entry.ID
			if err := s.Summary.Lock(tx, r.ID); err != nil {
				return err
			}
			balanceTouched = true
		}

		r.CurrentStatus = target
		if err := tx.Save(r).Error; err != nil {
			return err
		}
		if err := s.appendHistory(tx, r, actor); err != nil {
			return err
		}
		report = r
		return s.Outbox.Append(tx, domain.EntityComplianceReport, r.ID, fromStatus, target, actor, map[string]interface{}{
			"compliance_period": r.CompliancePeriod,
			"organization_id":   r.OrganizationID,
			"version":           r.Version,
		})
	})
	if err != nil {
		return nil, err
	}

	if balanceTouched {
		year := time.Now().UTC().Year()
		if available, err := s.Ledger.Available(ctx, report.OrganizationID, year); err == nil {
			s.Cache.Set(ctx, report.OrganizationID, year, available)
		}
	}
	return report, nil
}

// Get loads one report with summary, snapshot and history.
func (s *Service) Get(ctx context.Context, reportID uint) (*domain.ComplianceReport, error) {
	var r domain.ComplianceReport
	err := s.DB.WithContext(ctx).
		Preload("Organization").Preload("Summary").Preload("Snapshot").
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&r, reportID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, domain.WrapError(domain.ErrNotFound, "compliance report %d not found", reportID)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Chain returns every version of the report's group, oldest first.
func (s *Service) Chain(ctx context.Context, reportID uint) ([]domain.ComplianceReport, error) {
	var r domain.ComplianceReport
	if err := s.DB.WithContext(ctx).First(&r, reportID).Error; err != nil {
		return nil, domain.WrapError(domain.ErrNotFound, "compliance report %d not found", reportID)
	}
	var chain []domain.ComplianceReport
	err := s.DB.WithContext(ctx).Where("group_uuid = ?", r.GroupUUID).
		Order("version ASC").Find(&chain).Error
	return chain, err
}

func (s *Service) lockReport(tx *gorm.DB, reportID uint) (*domain.ComplianceReport, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var r domain.ComplianceReport
	if err := q.First(&r, reportID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.WrapError(domain.ErrNotFound, "compliance report %d not found", reportID)
		}
		return nil, err
	}
	return &r, nil
}

func (s *Service) appendHistory(tx *gorm.DB, r *domain.ComplianceReport, actor domain.Actor) error {
	return tx.Create(&domain.ComplianceReportHistory{
		ComplianceReportID: r.ID,
		Status:             r.CurrentStatus,
		UserID:             actor.UserID,
		DisplayName:        actor.DisplayName,
	}).Error
}

// freezeSnapshot copies the organization's addresses onto the report.
func (s *Service) freezeSnapshot(tx *gorm.DB, r *domain.ComplianceReport) error {
	var org domain.Organization
	if err := tx.First(&org, r.OrganizationID).Error; err != nil {
		return err
	}
	var addresses []domain.OrganizationAddress
	if err := tx.Where("organization_id = ?", org.ID).Find(&addresses).Error; err != nil {
		return err
	}
	snapshot := domain.OrganizationSnapshot{
		ComplianceReportID: r.ID,
		OrganizationID:     org.ID,
		Name:               org.Name,
	}
	for _, a := range addresses {
		formatted := formatAddress(a)
		switch a.AddressType {
		case "legal":
			snapshot.LegalAddress = formatted
		case "service":
			snapshot.ServiceAddress = formatted
		case "records":
			snapshot.RecordsAddress = formatted
		}
	}
	return tx.Create(&snapshot).Error
}

func formatAddress(a domain.OrganizationAddress) string {
	parts := []string{a.StreetAddress, a.City, a.Province, a.PostalCode, a.Country}
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
