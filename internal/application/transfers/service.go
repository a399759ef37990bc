// Package transfers drives the peer-to-peer transfer lifecycle. Each
// accepted transition runs in one database transaction: the transfer row
// is re-read and validated, ledger effects applied, a history row and an
// outbox event appended, and the parties' in-progress counts refreshed.
package transfers

import (
	"context"
	"time"

	"lcfs-backend/internal/application/balancecache"
	"lcfs-backend/internal/application/ledger"
	"lcfs-backend/internal/application/outbox"
	"lcfs-backend/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	DB     *gorm.DB
	Ledger *ledger.Service
	Outbox *outbox.Service
	Cache  *balancecache.Cache
}

// CreateTransferInput carries the fields a sender sets on a draft.
type CreateTransferInput struct {
	ToOrganizationID uint
	Quantity         int64
	PricePerUnit     decimal.Decimal
	AgreementDate    time.Time
	Comment          string
}

// Create opens a Draft transfer from the actor's organization.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateTransferInput) (*domain.Transfer, error) {
	if actor.OrganizationID == nil {
		return nil, domain.WrapError(domain.ErrPermissionDenied, "government users cannot create transfers")
	}
	fromID := *actor.OrganizationID
	if in.Quantity <= 0 {
		return nil, domain.WrapError(domain.ErrValidation, "quantity must be positive")
	}
	if in.PricePerUnit.IsNegative() {
		return nil, domain.WrapError(domain.ErrValidation, "price per unit must not be negative")
	}
	if in.ToOrganizationID == fromID {
		return nil, domain.WrapError(domain.ErrValidation, "cannot transfer to the sending organization")
	}
	if in.AgreementDate.IsZero() {
		return nil, domain.WrapError(domain.ErrValidation, "agreement date is required")
	}

	var transfer *domain.Transfer
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var from, to domain.Organization
		if err := tx.First(&from, fromID).Error; err != nil {
			return domain.WrapError(domain.ErrNotFound, "organization %d not found", fromID)
		}
		if err := tx.First(&to, in.ToOrganizationID).Error; err != nil {
			return domain.WrapError(domain.ErrNotFound, "organization %d not found", in.ToOrganizationID)
		}
		if !from.CanTransact() || !to.CanTransact() {
			return domain.WrapError(domain.ErrValidation, "both organizations must be registered to transfer")
		}

		transfer = &domain.Transfer{
			FromOrganizationID: fromID,
			ToOrganizationID:   in.ToOrganizationID,
			Quantity:           in.Quantity,
			PricePerUnit:       in.PricePerUnit,
			AgreementDate:      in.AgreementDate,
			CurrentStatus:      domain.TransferDraft,
		}
		if err := tx.Create(transfer).Error; err != nil {
			return err
		}
		if in.Comment != "" {
			if err := tx.Create(&domain.TransferComment{
				TransferID: transfer.ID,
				Audience:   domain.CommentFromOrg,
				Comment:    in.Comment,
				UserID:     actor.UserID,
			}).Error; err != nil {
				return err
			}
		}
		if err := s.appendHistory(tx, transfer, actor); err != nil {
			return err
		}
		return s.Outbox.Append(tx, domain.EntityTransfer, transfer.ID, "", domain.TransferDraft, actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// UpdateDraft edits quantity/price/date while the transfer is still Draft.
func (s *Service) UpdateDraft(ctx context.Context, actor domain.Actor, transferID uint, in CreateTransferInput) (*domain.Transfer, error) {
	if in.Quantity <= 0 {
		return nil, domain.WrapError(domain.ErrValidation, "quantity must be positive")
	}
	if in.PricePerUnit.IsNegative() {
		return nil, domain.WrapError(domain.ErrValidation, "price per unit must not be negative")
	}
	var transfer *domain.Transfer
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.lockTransfer(tx, transferID)
		if err != nil {
			return err
		}
		if t.CurrentStatus != domain.TransferDraft {
			return domain.WrapError(domain.ErrInvalidTransition, "only draft transfers can be edited")
		}
		if !actor.ActsFor(t.FromOrganizationID) {
			return domain.WrapError(domain.ErrPermissionDenied, "only the sender may edit a draft transfer")
		}
		t.Quantity = in.Quantity
		t.PricePerUnit = in.PricePerUnit
		if !in.AgreementDate.IsZero() {
			t.AgreementDate = in.AgreementDate
		}
		transfer = t
		return tx.Save(t).Error
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// TransitionOptions carries the extra inputs some transitions take.
type TransitionOptions struct {
	Recommendation string // Recommended: Record | Refuse
	Comment        string
	CommentAudience string
}

// Transition moves the transfer to the requested status, applying the
// table in machine.go. Everything runs in one transaction; on error no
// state is persisted.
func (s *Service) Transition(ctx context.Context, actor domain.Actor, transferID uint, to string, opts TransitionOptions) (*domain.Transfer, error) {
	var transfer *domain.Transfer
	var touched []uint // org ids whose balances changed

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.lockTransfer(tx, transferID)
		if err != nil {
			return err
		}
		tr, ok := findTransition(t.CurrentStatus, to)
		if !ok {
			return domain.WrapError(domain.ErrInvalidTransition, "cannot move transfer from %s to %s", t.CurrentStatus, to)
		}
		if err := allowedActor(tr, t, actor); err != nil {
			return err
		}

		fromStatus := t.CurrentStatus
		switch tr.effect {
		case effectReserve:
			entry, err := s.Ledger.Reserve(tx, t.FromOrganizationID, -t.Quantity)
			if err != nil {
				return err
			}
			t.FromTransactionID = &entry.ID
			t.Category = domain.CategoryForAgreementAge(t.AgreementDate, time.Now().UTC())
		case effectRelease:
			if t.FromTransactionID != nil {
				if _, err := s.Ledger.Release(tx, *t.FromTransactionID); err != nil {
					return err
				}
			}
		case effectRecord:
			// Lock both orgs in deterministic order before the ledger
			// writes re-lock them individually.
			if _, _, err := s.Ledger.LockOrganizationPair(tx, t.FromOrganizationID, t.ToOrganizationID); err != nil {
				return err
			}
			if t.FromTransactionID != nil {
				if err := s.Ledger.SettleReservation(tx, *t.FromTransactionID); err != nil {
					return err
				}
			}
			fromEntry, err := s.Ledger.Commit(tx, t.FromOrganizationID, -t.Quantity)
			if err != nil {
				return err
			}
			toEntry, err := s.Ledger.Commit(tx, t.ToOrganizationID, t.Quantity)
			if err != nil {
				return err
			}
			t.FromTransactionID = &fromEntry.ID
			t.ToTransactionID = &toEntry.ID
			now := time.Now().UTC()
			if t.TransactionEffectiveDate == nil {
				t.TransactionEffectiveDate = &now
			}
			touched = append(touched, t.FromOrganizationID, t.ToOrganizationID)
		}

		if to == domain.TransferRecommended {
			if opts.Recommendation != domain.RecommendationRecord && opts.Recommendation != domain.RecommendationRefuse {
				return domain.WrapError(domain.ErrValidation, "recommendation must be Record or Refuse")
			}
			t.Recommendation = &opts.Recommendation
		}

		t.CurrentStatus = to
		if err := tx.Save(t).Error; err != nil {
			return err
		}
		if opts.Comment != "" {
			audience := opts.CommentAudience
			if audience == "" {
				audience = domain.CommentGovernment
			}
			if err := tx.Create(&domain.TransferComment{
				TransferID: t.ID,
				Audience:   audience,
				Comment:    opts.Comment,
				UserID:     actor.UserID,
			}).Error; err != nil {
				return err
			}
		}
		if err := s.appendHistory(tx, t, actor); err != nil {
			return err
		}
		if err := s.refreshInProgressCounts(tx, t.FromOrganizationID, t.ToOrganizationID); err != nil {
			return err
		}
		transfer = t
		return s.Outbox.Append(tx, domain.EntityTransfer, t.ID, fromStatus, to, actor, map[string]interface{}{
			"quantity":             t.Quantity,
			"from_organization_id": t.FromOrganizationID,
			"to_organization_id":   t.ToOrganizationID,
		})
	})
	if err != nil {
		return nil, err
	}

	year := time.Now().UTC().Year()
	for _, orgID := range touched {
		if available, err := s.Ledger.Available(ctx, orgID, year); err == nil {
			s.Cache.Set(ctx, orgID, year, available)
		}
	}
	return transfer, nil
}

// Get loads a transfer with its parties and history.
func (s *Service) Get(ctx context.Context, transferID uint) (*domain.Transfer, error) {
	var t domain.Transfer
	err := s.DB.WithContext(ctx).
		Preload("FromOrganization").Preload("ToOrganization").
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Comments").
		First(&t, transferID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, domain.WrapError(domain.ErrNotFound, "transfer %d not found", transferID)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Service) lockTransfer(tx *gorm.DB, transferID uint) (*domain.Transfer, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var t domain.Transfer
	if err := q.First(&t, transferID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.WrapError(domain.ErrNotFound, "transfer %d not found", transferID)
		}
		return nil, err
	}
	return &t, nil
}

func (s *Service) appendHistory(tx *gorm.DB, t *domain.Transfer, actor domain.Actor) error {
	return tx.Create(&domain.TransferHistory{
		TransferID:  t.ID,
		Status:      t.CurrentStatus,
		UserID:      actor.UserID,
		DisplayName: actor.DisplayName,
	}).Error
}

// refreshInProgressCounts recomputes count_transfers_in_progress for both
// parties from the transfers table; write-through, re-derivable.
func (s *Service) refreshInProgressCounts(tx *gorm.DB, orgIDs ...uint) error {
	inProgress := []string{domain.TransferSent, domain.TransferSubmitted, domain.TransferRecommended}
	seen := map[uint]bool{}
	for _, orgID := range orgIDs {
		if seen[orgID] {
			continue
		}
		seen[orgID] = true
		var count int64
		if err := tx.Model(&domain.Transfer{}).
			Where("current_status IN ?", inProgress).
			Where("from_organization_id = ? OR to_organization_id = ?", orgID, orgID).
			Count(&count).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Organization{}).Where("id = ?", orgID).
			Update("count_transfers_in_progress", count).Error; err != nil {
			return err
		}
	}
	return nil
}
