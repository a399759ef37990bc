package domain

// Role names checked by the state machines.
const (
	RoleSupplier         = "supplier"
	RoleSigningAuthority = "signing_authority"
	RoleAnalyst          = "analyst"
	RoleComplianceManager = "compliance_manager"
	RoleDirector         = "director"
	RoleAdministrator    = "administrator"
)

// Actor identifies who is performing a core operation. Every state-machine
// entry point takes one explicitly; audit columns are set from it.
type Actor struct {
	UserID         uint
	OrganizationID *uint // nil for government users
	DisplayName    string
	Roles          []string
}

// IsGovernment reports whether the actor acts for the regulator rather
// than a fuel supplier.
func (a Actor) IsGovernment() bool { return a.OrganizationID == nil }

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ActsFor reports whether the actor belongs to the given organization.
func (a Actor) ActsFor(orgID uint) bool {
	return a.OrganizationID != nil && *a.OrganizationID == orgID
}
