package authority

import "github.com/google/uuid"

// Role is the ordered approval scale: staff < leader < manager < admin.
type Role string

const (
	RoleStaff   Role = "staff"
	RoleLeader  Role = "leader"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

var roleRank = map[Role]int{
	RoleStaff:   0,
	RoleLeader:  1,
	RoleManager: 2,
	RoleAdmin:   3,
}

// Rank returns the position of the role on the scale, -1 for unknown roles.
func (r Role) Rank() int {
	rank, ok := roleRank[r]
	if !ok {
		return -1
	}

	return rank
}

// Valid reports whether the role is one of the known scale values.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether the role ranks at or above the required role.
// Unknown roles never satisfy any requirement.
func (r Role) AtLeast(required Role) bool {
	return r.Valid() && r.Rank() >= required.Rank()
}

// Actor is an already-authenticated caller. Authentication itself happens
// upstream; the engine only ever sees this triple.
type Actor struct {
	ID    uuid.UUID
	Role  Role
	OrgID uuid.UUID
}

// Thresholds is an organization's approval tier configuration in cents.
// Level1 < Level2 is enforced when the configuration is written, not here.
type Thresholds struct {
	Level1 int64
	Level2 int64
}

// Decision is the outcome of an authority check.
type Decision struct {
	Authorized bool
	Required   Role
}

// RequiredFor returns the minimum role that may approve a document of the
// given total amount under the thresholds.
func RequiredFor(amount int64, t Thresholds) Role {
	switch {
	case amount < t.Level1:
		return RoleLeader
	case amount < t.Level2:
		return RoleManager
	default:
		return RoleAdmin
	}
}

// Resolve maps (actor role, document amount, org thresholds) to an
// authority decision. It is pure: no I/O, no side effects, and it never
// fails — callers turn an unauthorized decision into an error.
func Resolve(role Role, amount int64, t Thresholds) Decision {
	required := RequiredFor(amount, t)

	return Decision{
		Authorized: role.AtLeast(required),
		Required:   required,
	}
}
