// Package queries is the read side: per-organization credit ledger with a
// rolling balance, the cross-entity transactions view filtered per
// audience, and the compliance report lists with their derived counts.
// Everything here is re-derivable from the base tables.
package queries

import (
	"context"
	"time"

	"lcfs-backend/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// Transaction type labels in the views.
const (
	TypeTransfer            = "Transfer"
	TypeAdminAdjustment     = "AdminAdjustment"
	TypeInitiativeAgreement = "InitiativeAgreement"
	TypeComplianceReport    = "ComplianceReport"

	// TypeUnknown labels an entry whose parent entity could not be
	// resolved. Surfacing it keeps projection gaps visible instead of
	// passing them off as government issuances.
	TypeUnknown = "Unknown"
)

// CreditLedgerRow is one committed ledger movement with its parent entity
// resolved and the balance after it.
type CreditLedgerRow struct {
	EntryID          uint      `json:"transaction_id"`
	TransactionType  string    `json:"transaction_type"`
	CompliancePeriod int       `json:"compliance_period"`
	ComplianceUnits  int64     `json:"compliance_units"`
	AvailableBalance int64     `json:"available_balance"`
	TransactionDate  time.Time `json:"transaction_date"`
}

// CreditLedger projects an organization's committed entries in create
// order with a rolling balance. Reservations and releases are working
// state, not movements, so only Adjustment entries appear.
func (s *Service) CreditLedger(ctx context.Context, orgID uint) ([]CreditLedgerRow, error) {
	db := s.DB.WithContext(ctx)

	var entries []domain.Transaction
	if err := db.Where("organization_id = ? AND action = ?", orgID, domain.ActionAdjustment).
		Order("create_date ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}

	parents, periods, err := s.resolveParents(db, orgID)
	if err != nil {
		return nil, err
	}

	rows := make([]CreditLedgerRow, 0, len(entries))
	var running int64
	for _, e := range entries {
		running += e.ComplianceUnits
		row := CreditLedgerRow{
			EntryID:          e.ID,
			TransactionType:  parents[e.ID],
			CompliancePeriod: e.CreateDate.Year(),
			ComplianceUnits:  e.ComplianceUnits,
			AvailableBalance: running,
			TransactionDate:  e.CreateDate,
		}
		if p, ok := periods[e.ID]; ok {
			row.CompliancePeriod = p
		}
		if row.TransactionType == "" {
			row.TransactionType = TypeUnknown
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// resolveParents maps entry id to the entity kind that produced it, and,
// for report assessments, to the report's compliance period.
func (s *Service) resolveParents(db *gorm.DB, orgID uint) (map[uint]string, map[uint]int, error) {
	parents := map[uint]string{}
	periods := map[uint]int{}

	var transfers []domain.Transfer
	if err := db.Where("from_organization_id = ? OR to_organization_id = ?", orgID, orgID).
		Where("from_transaction_id IS NOT NULL OR to_transaction_id IS NOT NULL").
		Find(&transfers).Error; err != nil {
		return nil, nil, err
	}
	for _, t := range transfers {
		if t.FromTransactionID != nil {
			parents[*t.FromTransactionID] = TypeTransfer
		}
		if t.ToTransactionID != nil {
			parents[*t.ToTransactionID] = TypeTransfer
		}
	}

	var adjustments []domain.AdminAdjustment
	if err := db.Where("to_organization_id = ? AND transaction_id IS NOT NULL", orgID).
		Find(&adjustments).Error; err != nil {
		return nil, nil, err
	}
	for _, a := range adjustments {
		parents[*a.TransactionID] = TypeAdminAdjustment
	}

	var agreements []domain.InitiativeAgreement
	if err := db.Where("to_organization_id = ? AND transaction_id IS NOT NULL", orgID).
		Find(&agreements).Error; err != nil {
		return nil, nil, err
	}
	for _, a := range agreements {
		parents[*a.TransactionID] = TypeInitiativeAgreement
	}

	var reports []domain.ComplianceReport
	if err := db.Where("organization_id = ? AND transaction_id IS NOT NULL", orgID).
		Find(&reports).Error; err != nil {
		return nil, nil, err
	}
	for _, r := range reports {
		parents[*r.TransactionID] = TypeComplianceReport
		periods[*r.TransactionID] = r.CompliancePeriod
	}
	return parents, periods, nil
}

// TransactionRow is one entry of the cross-entity transactions view.
type TransactionRow struct {
	TransactionType    string          `json:"transaction_type"`
	EntityID           uint            `json:"entity_id"`
	Status             string          `json:"status"`
	ComplianceUnits    int64           `json:"compliance_units"`
	PricePerUnit       decimal.Decimal `json:"price_per_unit"`
	FromOrganizationID *uint           `json:"from_organization_id,omitempty"`
	ToOrganizationID   uint            `json:"to_organization_id"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Transactions unions transfers and issuances, filtered by what the actor
// is allowed to see. Transfers follow the per-status visibility flags;
// issuances are government working documents that suppliers see only once
// approved for their organization.
func (s *Service) Transactions(ctx context.Context, actor domain.Actor) ([]TransactionRow, error) {
	db := s.DB.WithContext(ctx)

	visibility, err := s.visibilityByStatus(db)
	if err != nil {
		return nil, err
	}

	var transfers []domain.Transfer
	tq := db.Model(&domain.Transfer{})
	if !actor.IsGovernment() {
		tq = tq.Where("from_organization_id = ? OR to_organization_id = ?", *actor.OrganizationID, *actor.OrganizationID)
	}
	if err := tq.Order("updated_at DESC").Find(&transfers).Error; err != nil {
		return nil, err
	}

	var rows []TransactionRow
	for _, t := range transfers {
		if !transferVisible(&t, actor, visibility) {
			continue
		}
		from := t.FromOrganizationID
		units := t.Quantity
		rows = append(rows, TransactionRow{
			TransactionType:    TypeTransfer,
			EntityID:           t.ID,
			Status:             t.CurrentStatus,
			ComplianceUnits:    units,
			PricePerUnit:       t.PricePerUnit,
			FromOrganizationID: &from,
			ToOrganizationID:   t.ToOrganizationID,
			CreatedAt:          t.CreatedAt,
			UpdatedAt:          t.UpdatedAt,
		})
	}

	adjQ := db.Model(&domain.AdminAdjustment{})
	iaQ := db.Model(&domain.InitiativeAgreement{})
	if !actor.IsGovernment() {
		adjQ = adjQ.Where("to_organization_id = ? AND current_status = ?", *actor.OrganizationID, domain.IssuanceApproved)
		iaQ = iaQ.Where("to_organization_id = ? AND current_status = ?", *actor.OrganizationID, domain.IssuanceApproved)
	} else {
		adjQ = adjQ.Where("current_status <> ?", domain.IssuanceDeleted)
		iaQ = iaQ.Where("current_status <> ?", domain.IssuanceDeleted)
	}
	var adjustments []domain.AdminAdjustment
	if err := adjQ.Order("updated_at DESC").Find(&adjustments).Error; err != nil {
		return nil, err
	}
	for _, a := range adjustments {
		rows = append(rows, TransactionRow{
			TransactionType:  TypeAdminAdjustment,
			EntityID:         a.ID,
			Status:           a.CurrentStatus,
			ComplianceUnits:  a.ComplianceUnits,
			ToOrganizationID: a.ToOrganizationID,
			CreatedAt:        a.CreatedAt,
			UpdatedAt:        a.UpdatedAt,
		})
	}
	var agreements []domain.InitiativeAgreement
	if err := iaQ.Order("updated_at DESC").Find(&agreements).Error; err != nil {
		return nil, err
	}
	for _, a := range agreements {
		rows = append(rows, TransactionRow{
			TransactionType:  TypeInitiativeAgreement,
			EntityID:         a.ID,
			Status:           a.CurrentStatus,
			ComplianceUnits:  a.ComplianceUnits,
			ToOrganizationID: a.ToOrganizationID,
			CreatedAt:        a.CreatedAt,
			UpdatedAt:        a.UpdatedAt,
		})
	}
	return rows, nil
}

func (s *Service) visibilityByStatus(db *gorm.DB) (map[string]domain.TransferStatusVisibility, error) {
	var flags []domain.TransferStatusVisibility
	if err := db.Find(&flags).Error; err != nil {
		return nil, err
	}
	out := make(map[string]domain.TransferStatusVisibility, len(flags))
	for _, f := range flags {
		out[f.Status] = f
	}
	return out, nil
}

// transferVisible applies the status visibility flags for the actor's
// relationship to the transfer. An unseeded status falls back to
// party-and-government visibility.
func transferVisible(t *domain.Transfer, actor domain.Actor, flags map[string]domain.TransferStatusVisibility) bool {
	f, seeded := flags[t.CurrentStatus]
	if actor.IsGovernment() {
		return !seeded || f.VisibleToGovernment
	}
	switch {
	case actor.ActsFor(t.FromOrganizationID):
		return !seeded || f.VisibleToSender
	case actor.ActsFor(t.ToOrganizationID):
		return !seeded || f.VisibleToReceiver
	}
	return false
}

// Report list counts derive from status alone.
var (
	reportInProgressStatuses = []string{
		domain.ReportDraft, domain.ReportSubmitted, domain.ReportAnalystAdjustment,
		domain.ReportRecommendedByAnalyst, domain.ReportRecommendedByManager,
		domain.ReportNotRecommendedByAnalyst, domain.ReportNotRecommendedByManager,
		domain.ReportSupplementalRequested,
	}
	reportAwaitingReviewStatuses = []string{
		domain.ReportSubmitted, domain.ReportAnalystAdjustment,
		domain.ReportRecommendedByAnalyst, domain.ReportRecommendedByManager,
		domain.ReportNotRecommendedByAnalyst, domain.ReportNotRecommendedByManager,
	}
)

// ReportCounts are the dashboard numbers next to the report lists.
type ReportCounts struct {
	InProgress     int64 `json:"in_progress"`
	AwaitingReview int64 `json:"awaiting_review"`
}

// Reports lists compliance report versions, newest first. Suppliers see
// their own organization; government sees everything. Suppliers never see
// another supplier's drafts.
func (s *Service) Reports(ctx context.Context, actor domain.Actor, statusFilter string) ([]domain.ComplianceReport, error) {
	q := s.DB.WithContext(ctx).Model(&domain.ComplianceReport{}).Preload("Organization")
	if !actor.IsGovernment() {
		q = q.Where("organization_id = ?", *actor.OrganizationID)
	} else {
		// Unsubmitted drafts are supplier-private.
		q = q.Where("current_status <> ?", domain.ReportDraft)
	}
	if statusFilter != "" {
		q = q.Where("current_status = ?", statusFilter)
	}
	var reports []domain.ComplianceReport
	err := q.Order("compliance_period DESC, version DESC, id DESC").Find(&reports).Error
	return reports, err
}

// Counts returns the derived report counters for the actor's scope.
func (s *Service) Counts(ctx context.Context, actor domain.Actor) (*ReportCounts, error) {
	base := func() *gorm.DB {
		q := s.DB.WithContext(ctx).Model(&domain.ComplianceReport{})
		if !actor.IsGovernment() {
			q = q.Where("organization_id = ?", *actor.OrganizationID)
		}
		return q
	}
	var out ReportCounts
	if err := base().Where("current_status IN ?", reportInProgressStatuses).Count(&out.InProgress).Error; err != nil {
		return nil, err
	}
	if err := base().Where("current_status IN ?", reportAwaitingReviewStatuses).Count(&out.AwaitingReview).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
