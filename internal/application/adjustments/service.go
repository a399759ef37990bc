// Package adjustments drives the government-initiated issuance entities:
// admin adjustments and initiative agreements. Both share the two-step
// pattern Draft -> Recommended -> Approved | Deleted, with the ledger
// commit on director approval.
package adjustments

import (
	"context"
	"time"

	"lcfs-backend/internal/application/balancecache"
	"lcfs-backend/internal/application/ledger"
	"lcfs-backend/internal/application/outbox"
	"lcfs-backend/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	DB     *gorm.DB
	Ledger *ledger.Service
	Outbox *outbox.Service
	Cache  *balancecache.Cache
}

type issuanceTransition struct {
	from, to string
	role     string
}

// Both entity kinds use the same graph. Analysts move drafts forward or
// delete them; only the director approves.
var issuanceTransitions = []issuanceTransition{
	{domain.IssuanceDraft, domain.IssuanceRecommended, domain.RoleAnalyst},
	{domain.IssuanceDraft, domain.IssuanceDeleted, domain.RoleAnalyst},
	{domain.IssuanceRecommended, domain.IssuanceApproved, domain.RoleDirector},
	{domain.IssuanceRecommended, domain.IssuanceDeleted, domain.RoleDirector},
}

func findIssuanceTransition(from, to string) (issuanceTransition, bool) {
	for _, tr := range issuanceTransitions {
		if tr.from == from && tr.to == to {
			return tr, true
		}
	}
	return issuanceTransition{}, false
}

func checkIssuanceActor(tr issuanceTransition, actor domain.Actor) error {
	if !actor.IsGovernment() {
		return domain.WrapError(domain.ErrPermissionDenied, "issuances are government-only")
	}
	if !actor.HasRole(tr.role) {
		return domain.WrapError(domain.ErrPermissionDenied, "role %s required to move an issuance to %s", tr.role, tr.to)
	}
	return nil
}

// CreateAdminAdjustment opens a draft balance correction. Units may be
// negative; the capacity check happens at approval time.
func (s *Service) CreateAdminAdjustment(ctx context.Context, actor domain.Actor, toOrgID uint, units int64, comment string) (*domain.AdminAdjustment, error) {
	if !actor.IsGovernment() || !actor.HasRole(domain.RoleAnalyst) {
		return nil, domain.WrapError(domain.ErrPermissionDenied, "role %s required to draft an admin adjustment", domain.RoleAnalyst)
	}
	if units == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "compliance units must be non-zero")
	}
	var adj *domain.AdminAdjustment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&domain.Organization{}, toOrgID).Error; err != nil {
			return domain.WrapError(domain.ErrNotFound, "organization %d not found", toOrgID)
		}
		adj = &domain.AdminAdjustment{
			ToOrganizationID: toOrgID,
			ComplianceUnits:  units,
			CurrentStatus:    domain.IssuanceDraft,
			GovComment:       comment,
		}
		if err := tx.Create(adj).Error; err != nil {
			return err
		}
		if err := s.appendHistory(tx, "AdminAdjustment", adj.ID, adj.CurrentStatus, actor); err != nil {
			return err
		}
		return s.Outbox.Append(tx, domain.EntityAdminAdjustment, adj.ID, "", domain.IssuanceDraft, actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return adj, nil
}

// CreateInitiativeAgreement opens a draft credit issuance for an approved
// Part 3 initiative. Issuances only ever add units.
func (s *Service) CreateInitiativeAgreement(ctx context.Context, actor domain.Actor, toOrgID uint, units int64, comment string) (*domain.InitiativeAgreement, error) {
	if !actor.IsGovernment() || !actor.HasRole(domain.RoleAnalyst) {
		return nil, domain.WrapError(domain.ErrPermissionDenied, "role %s required to draft an initiative agreement", domain.RoleAnalyst)
	}
	if units <= 0 {
		return nil, domain.WrapError(domain.ErrValidation, "compliance units must be positive")
	}
	var ia *domain.InitiativeAgreement
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&domain.Organization{}, toOrgID).Error; err != nil {
			return domain.WrapError(domain.ErrNotFound, "organization %d not found", toOrgID)
		}
		ia = &domain.InitiativeAgreement{
			ToOrganizationID: toOrgID,
			ComplianceUnits:  units,
			CurrentStatus:    domain.IssuanceDraft,
			GovComment:       comment,
		}
		if err := tx.Create(ia).Error; err != nil {
			return err
		}
		if err := s.appendHistory(tx, "InitiativeAgreement", ia.ID, ia.CurrentStatus, actor); err != nil {
			return err
		}
		return s.Outbox.Append(tx, domain.EntityInitiativeAgreement, ia.ID, "", domain.IssuanceDraft, actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return ia, nil
}

// TransitionAdminAdjustment moves an adjustment through the issuance
// graph; approval commits the units and records the entry id.
func (s *Service) TransitionAdminAdjustment(ctx context.Context, actor domain.Actor, id uint, to string) (*domain.AdminAdjustment, error) {
	var adj *domain.AdminAdjustment
	var approved bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a domain.AdminAdjustment
		if err := s.lockIssuance(tx, &a, id); err != nil {
			return domain.WrapError(domain.ErrNotFound, "admin adjustment %d not found", id)
		}
		tr, ok := findIssuanceTransition(a.CurrentStatus, to)
		if !ok {
			return domain.WrapError(domain.ErrInvalidTransition, "cannot move admin adjustment from %s to %s", a.CurrentStatus, to)
		}
		if err := checkIssuanceActor(tr, actor); err != nil {
			return err
		}
		from := a.CurrentStatus
		if to == domain.IssuanceApproved {
			entry, err := s.Ledger.Commit(tx, a.ToOrganizationID, a.ComplianceUnits)
			if err != nil {
				return err
			}
			a.TransactionID = &entry.ID
			now := time.Now().UTC()
			a.TransactionEffectiveDate = &now
			approved = true
		}
		a.CurrentStatus = to
		if err := tx.Save(&a).Error; err != nil {
			return err
		}
		if err := s.appendHistory(tx, "AdminAdjustment", a.ID, to, actor); err != nil {
			return err
		}
		adj = &a
		return s.Outbox.Append(tx, domain.EntityAdminAdjustment, a.ID, from, to, actor, map[string]interface{}{
			"to_organization_id": a.ToOrganizationID,
			"compliance_units":   a.ComplianceUnits,
		})
	})
	if err != nil {
		return nil, err
	}
	if approved {
		s.refreshBalance(ctx, adj.ToOrganizationID)
	}
	return adj, nil
}

// TransitionInitiativeAgreement mirrors TransitionAdminAdjustment.
func (s *Service) TransitionInitiativeAgreement(ctx context.Context, actor domain.Actor, id uint, to string) (*domain.InitiativeAgreement, error) {
	var ia *domain.InitiativeAgreement
	var approved bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a domain.InitiativeAgreement
		if err := s.lockIssuance(tx, &a, id); err != nil {
			return domain.WrapError(domain.ErrNotFound, "initiative agreement %d not found", id)
		}
		tr, ok := findIssuanceTransition(a.CurrentStatus, to)
		if !ok {
			return domain.WrapError(domain.ErrInvalidTransition, "cannot move initiative agreement from %s to %s", a.CurrentStatus, to)
		}
		if err := checkIssuanceActor(tr, actor); err != nil {
			return err
		}
		from := a.CurrentStatus
		if to == domain.IssuanceApproved {
			entry, err := s.Ledger.Commit(tx, a.ToOrganizationID, a.ComplianceUnits)
			if err != nil {
				return err
			}
			a.TransactionID = &entry.ID
			now := time.Now().UTC()
			a.TransactionEffectiveDate = &now
			approved = true
		}
		a.CurrentStatus = to
		if err := tx.Save(&a).Error; err != nil {
			return err
		}
		if err := s.appendHistory(tx, "InitiativeAgreement", a.ID, to, actor); err != nil {
			return err
		}
		ia = &a
		return s.Outbox.Append(tx, domain.EntityInitiativeAgreement, a.ID, from, to, actor, map[string]interface{}{
			"to_organization_id": a.ToOrganizationID,
			"compliance_units":   a.ComplianceUnits,
		})
	})
	if err != nil {
		return nil, err
	}
	if approved {
		s.refreshBalance(ctx, ia.ToOrganizationID)
	}
	return ia, nil
}

// GetAdminAdjustment loads one adjustment with its history.
func (s *Service) GetAdminAdjustment(ctx context.Context, id uint) (*domain.AdminAdjustment, error) {
	var a domain.AdminAdjustment
	err := s.DB.WithContext(ctx).Preload("ToOrganization").Preload("History").First(&a, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, domain.WrapError(domain.ErrNotFound, "admin adjustment %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetInitiativeAgreement loads one agreement with its history.
func (s *Service) GetInitiativeAgreement(ctx context.Context, id uint) (*domain.InitiativeAgreement, error) {
	var a domain.InitiativeAgreement
	err := s.DB.WithContext(ctx).Preload("ToOrganization").Preload("History").First(&a, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, domain.WrapError(domain.ErrNotFound, "initiative agreement %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Service) lockIssuance(tx *gorm.DB, dest interface{}, id uint) error {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q.First(dest, id).Error
}

func (s *Service) appendHistory(tx *gorm.DB, parentType string, parentID uint, status string, actor domain.Actor) error {
	return tx.Create(&domain.IssuanceHistory{
		ParentID:    parentID,
		ParentType:  parentType,
		Status:      status,
		UserID:      actor.UserID,
		DisplayName: actor.DisplayName,
	}).Error
}

func (s *Service) refreshBalance(ctx context.Context, orgID uint) {
	year := time.Now().UTC().Year()
	if available, err := s.Ledger.Available(ctx, orgID, year); err == nil {
		s.Cache.Set(ctx, orgID, year, available)
	}
}
