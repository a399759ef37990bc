package transfers

import "lcfs-backend/internal/domain"

// Who may drive a transition.
type actorRule int

const (
	bySender actorRule = iota
	byReceiver
	byEitherParty
	byGovernment
)

// ledger side effect of a transition.
type ledgerEffect int

const (
	effectNone ledgerEffect = iota
	effectReserve // reserve -quantity on the sender
	effectRelease // release the sender's reservation
	effectRecord  // commit -quantity/+quantity, settle the reservation
)

type transition struct {
	from         string
	to           string
	actor        actorRule
	requiredRole string // "" means party membership alone suffices
	effect       ledgerEffect
}

// The full transfer graph. Anything not listed is ErrInvalidTransition.
var transitions = []transition{
	{from: domain.TransferDraft, to: domain.TransferDeleted, actor: bySender},
	{from: domain.TransferDraft, to: domain.TransferSent, actor: bySender, requiredRole: domain.RoleSigningAuthority, effect: effectReserve},
	{from: domain.TransferSent, to: domain.TransferRescinded, actor: bySender, effect: effectRelease},
	{from: domain.TransferSent, to: domain.TransferDeclined, actor: byReceiver, effect: effectRelease},
	{from: domain.TransferSent, to: domain.TransferSubmitted, actor: byReceiver, requiredRole: domain.RoleSigningAuthority},
	{from: domain.TransferSubmitted, to: domain.TransferRescinded, actor: byEitherParty, effect: effectRelease},
	{from: domain.TransferSubmitted, to: domain.TransferRecommended, actor: byGovernment, requiredRole: domain.RoleAnalyst},
	{from: domain.TransferRecommended, to: domain.TransferRefused, actor: byGovernment, requiredRole: domain.RoleDirector, effect: effectRelease},
	{from: domain.TransferRecommended, to: domain.TransferRecorded, actor: byGovernment, requiredRole: domain.RoleDirector, effect: effectRecord},
}

func findTransition(from, to string) (transition, bool) {
	for _, tr := range transitions {
		if tr.from == from && tr.to == to {
			return tr, true
		}
	}
	return transition{}, false
}

// allowedActor checks party membership and role for the transition.
func allowedActor(tr transition, t *domain.Transfer, actor domain.Actor) error {
	switch tr.actor {
	case bySender:
		if !actor.ActsFor(t.FromOrganizationID) {
			return domain.WrapError(domain.ErrPermissionDenied, "only the sending organization may move a transfer to %s", tr.to)
		}
	case byReceiver:
		if !actor.ActsFor(t.ToOrganizationID) {
			return domain.WrapError(domain.ErrPermissionDenied, "only the receiving organization may move a transfer to %s", tr.to)
		}
	case byEitherParty:
		if !actor.ActsFor(t.FromOrganizationID) && !actor.ActsFor(t.ToOrganizationID) {
			return domain.WrapError(domain.ErrPermissionDenied, "only a transfer party may move a transfer to %s", tr.to)
		}
	case byGovernment:
		if !actor.IsGovernment() {
			return domain.WrapError(domain.ErrPermissionDenied, "only government may move a transfer to %s", tr.to)
		}
	}
	if tr.requiredRole != "" && !actor.HasRole(tr.requiredRole) {
		return domain.WrapError(domain.ErrPermissionDenied, "role %s required to move a transfer to %s", tr.requiredRole, tr.to)
	}
	return nil
}
