package models

import "fmt"

// UserRole is the role claim carried by API tokens. Accounts themselves are
// managed outside the tab room.
type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleTabDirector UserRole = "tab_director"
	RoleObserver    UserRole = "observer"
)

func ParseUserRole(s string) (UserRole, error) {
	switch r := UserRole(s); r {
	case RoleAdmin, RoleTabDirector, RoleObserver:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}
