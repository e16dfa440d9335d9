// Package policy decides what an authenticated identity may do.
package policy

import (
	"strings"

	"devroots-sacco/internal/core/domain"
)

// Permissions known to the back office
const (
	MembersView       = "members.view"
	MembersManage     = "members.manage"
	SavingsView       = "savings.view"
	SavingsTransact   = "savings.transact"
	LoansView         = "loans.view"
	LoansManage       = "loans.manage"
	LoansApprove      = "loans.approve"
	NotificationsView = "notifications.view"
	ReportsView       = "reports.view"
	SettingsManage    = "settings.manage"
	RolesManage       = "roles.manage"
	LogsView          = "logs.view"
)

// All lists every permission, used when seeding roles and validating role input
var All = []string{
	MembersView, MembersManage,
	SavingsView, SavingsTransact,
	LoansView, LoansManage, LoansApprove,
	NotificationsView, ReportsView,
	SettingsManage, RolesManage, LogsView,
}

// Identity is the subset of an authenticated user the policy looks at
type Identity struct {
	UserID      uint
	IsStaff     bool
	Groups      []string
	Permissions []string
}

// IsAdmin reports whether the identity is an administrator:
// a staff account or a member of the Admin group.
func IsAdmin(id Identity) bool {
	if id.IsStaff {
		return true
	}
	for _, g := range id.Groups {
		if g == domain.GroupAdmin {
			return true
		}
	}
	return false
}

// HasPermission reports whether id may perform perm.
// Administrators hold every permission; everyone else is limited to their
// role's grants, where "*" matches anything and "loans.*" matches any
// permission in the loans namespace.
func HasPermission(id Identity, perm string) bool {
	if IsAdmin(id) {
		return true
	}
	for _, granted := range id.Permissions {
		if matches(granted, perm) {
			return true
		}
	}
	return false
}

func matches(granted, perm string) bool {
	if granted == "*" || granted == perm {
		return true
	}
	if prefix, ok := strings.CutSuffix(granted, ".*"); ok {
		return strings.HasPrefix(perm, prefix+".")
	}
	return false
}

// Known reports whether perm is a recognised permission or wildcard
func Known(perm string) bool {
	if perm == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(perm, ".*"); ok {
		for _, p := range All {
			if strings.HasPrefix(p, prefix+".") {
				return true
			}
		}
		return false
	}
	for _, p := range All {
		if p == perm {
			return true
		}
	}
	return false
}
