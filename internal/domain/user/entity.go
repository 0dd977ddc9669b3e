package user

import "time"

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// User is a marketplace identity keyed by npub. Key material and profile
// data live outside this service; only the npub crosses the boundary.
type User struct {
	Npub         string    `db:"npub" json:"npub"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	LastActiveAt time.Time `db:"last_active_at" json:"last_active_at"`
}
