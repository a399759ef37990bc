package reports

import "lcfs-backend/internal/domain"

// Report transitions are either supplier-side (signing authority of the
// reporting organization) or government-side with a specific role.
type transition struct {
	from         string
	to           string
	government   bool
	requiredRole string
}

var transitions = []transition{
	{from: domain.ReportDraft, to: domain.ReportSubmitted, requiredRole: domain.RoleSigningAuthority},

	{from: domain.ReportSubmitted, to: domain.ReportAnalystAdjustment, government: true, requiredRole: domain.RoleAnalyst},
	{from: domain.ReportSubmitted, to: domain.ReportRecommendedByAnalyst, government: true, requiredRole: domain.RoleAnalyst},
	{from: domain.ReportSubmitted, to: domain.ReportNotRecommendedByAnalyst, government: true, requiredRole: domain.RoleAnalyst},

	{from: domain.ReportAnalystAdjustment, to: domain.ReportRecommendedByAnalyst, government: true, requiredRole: domain.RoleAnalyst},
	{from: domain.ReportAnalystAdjustment, to: domain.ReportNotRecommendedByAnalyst, government: true, requiredRole: domain.RoleAnalyst},

	{from: domain.ReportRecommendedByAnalyst, to: domain.ReportRecommendedByManager, government: true, requiredRole: domain.RoleComplianceManager},
	{from: domain.ReportRecommendedByAnalyst, to: domain.ReportNotRecommendedByManager, government: true, requiredRole: domain.RoleComplianceManager},
	{from: domain.ReportNotRecommendedByAnalyst, to: domain.ReportRecommendedByManager, government: true, requiredRole: domain.RoleComplianceManager},
	{from: domain.ReportNotRecommendedByAnalyst, to: domain.ReportNotRecommendedByManager, government: true, requiredRole: domain.RoleComplianceManager},

	{from: domain.ReportRecommendedByManager, to: domain.ReportAssessed, government: true, requiredRole: domain.RoleDirector},
	{from: domain.ReportRecommendedByManager, to: domain.ReportSupplementalRequested, government: true, requiredRole: domain.RoleDirector},
	{from: domain.ReportRecommendedByManager, to: domain.ReportRejected, government: true, requiredRole: domain.RoleDirector},
	{from: domain.ReportNotRecommendedByManager, to: domain.ReportAssessed, government: true, requiredRole: domain.RoleDirector},
	{from: domain.ReportNotRecommendedByManager, to: domain.ReportRejected, government: true, requiredRole: domain.RoleDirector},
}

func findTransition(from, to string) (transition, bool) {
	for _, tr := range transitions {
		if tr.from == from && tr.to == to {
			return tr, true
		}
	}
	return transition{}, false
}

func allowedActor(tr transition, r *domain.ComplianceReport, actor domain.Actor) error {
	if tr.government {
		if !actor.IsGovernment() {
			return domain.WrapError(domain.ErrPermissionDenied, "only government may move a report to %s", tr.to)
		}
	} else if !actor.ActsFor(r.OrganizationID) {
		return domain.WrapError(domain.ErrPermissionDenied, "only the reporting organization may move a report to %s", tr.to)
	}
	if tr.requiredRole != "" && !actor.HasRole(tr.requiredRole) {
		return domain.WrapError(domain.ErrPermissionDenied, "role %s required to move a report to %s", tr.requiredRole, tr.to)
	}
	return nil
}
