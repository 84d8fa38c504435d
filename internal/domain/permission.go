package domain

// Permission identifies one grantable capability, in the
// "<app>.<ability>.<resource>" form.
type Permission string

// Ability is one of the four CRUD capabilities a resource guards.
type Ability int

const (
	AbilityCreate Ability = iota
	AbilityRead
	AbilityUpdate
	AbilityDelete
)

func (a Ability) String() string {
	switch a {
	case AbilityCreate:
		return "create"
	case AbilityRead:
		return "read"
	case AbilityUpdate:
		return "update"
	case AbilityDelete:
		return "delete"
	default:
		return "unknown"
	}
}

const (
	PermCreateOrders Permission = "nexopos.create.orders"
	PermReadOrders   Permission = "nexopos.read.orders"
	PermUpdateOrders Permission = "nexopos.update.orders"
	PermDeleteOrders Permission = "nexopos.delete.orders"

	PermCreateTransactions Permission = "nexopos.create.transactions"
	PermReadTransactions   Permission = "nexopos.read.transactions"
	PermUpdateTransactions Permission = "nexopos.update.transactions"
	PermDeleteTransactions Permission = "nexopos.delete.transactions"
)

// Role namespaces with special meaning.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
)

// Permissions holds the permission required for each ability of a resource.
type Permissions struct {
	Create Permission `json:"create"`
	Read   Permission `json:"read"`
	Update Permission `json:"update"`
	Delete Permission `json:"delete"`
}

// For returns the permission guarding ability a.
func (p Permissions) For(a Ability) Permission {
	switch a {
	case AbilityCreate:
		return p.Create
	case AbilityRead:
		return p.Read
	case AbilityUpdate:
		return p.Update
	case AbilityDelete:
		return p.Delete
	default:
		return ""
	}
}

// All returns every permission in the set, skipping empty ones.
func (p Permissions) All() []Permission {
	out := make([]Permission, 0, 4)
	for _, perm := range []Permission{p.Create, p.Read, p.Update, p.Delete} {
		if perm != "" {
			out = append(out, perm)
		}
	}
	return out
}
