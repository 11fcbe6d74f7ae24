package entity

import (
	"time"

	"gopkg.in/guregu/null.v3"
)

type UserRole string

const (
	RoleResident     UserRole = "RESIDENT"
	RoleGroupLeader  UserRole = "GROUP_LEADER"
	RoleWardOfficial UserRole = "WARD_OFFICIAL"
	RoleAdmin        UserRole = "ADMIN"
)

// IsOfficial reports whether the role may manage events, areas and reference data.
func (r UserRole) IsOfficial() bool {
	switch r {
	case RoleGroupLeader, RoleWardOfficial, RoleAdmin:
		return true
	}
	return false
}

func (r UserRole) Valid() bool {
	return r == RoleResident || r.IsOfficial()
}

type User struct {
	ID                 string      `json:"id"`
	Username           string      `json:"username"`
	PasswordHash       string      `json:"-"`
	FullName           string      `json:"full_name"`
	Phone              null.String `json:"phone"`
	Email              null.String `json:"email"`
	Role               UserRole    `json:"role"`
	ManagementAreaCode null.String `json:"management_area_code"`
	CreatedAt          time.Time   `json:"created_at"`
	LastLoginAt        null.Time   `json:"last_login_at"`
}

// Identity is the authenticated caller of an operation. The zero value is an
// anonymous caller.
type Identity struct {
	UserID string
	Role   UserRole
}

func (i Identity) Anonymous() bool {
	return i.UserID == ""
}
