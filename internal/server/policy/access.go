package policy

import (
	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   models.Role
}

func (p Principal) IsAdmin() bool { return p.Role == models.RoleAdmin }

// Decision is the outcome of an access check. Reason is for logs only and is
// never sent to the caller.
type Decision struct {
	Allowed bool
	Reason  string
}

var allowed = Decision{Allowed: true}

func denied(reason string) Decision { return Decision{Reason: reason} }

// Err converts a denial into common.ErrorForbidden.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return common.ErrorForbidden
}

// Authorize grants access to a resource owned by ownerUserID when the caller
// is an admin or is that owner.
func Authorize(p Principal, ownerUserID string) Decision {
	switch {
	case !p.Role.Valid():
		return denied("unknown role")
	case p.IsAdmin():
		return allowed
	case p.UserID != "" && p.UserID == ownerUserID:
		return allowed
	default:
		return denied("not the project owner")
	}
}

// AuthorizeProject is Authorize against the user behind the project's client.
func AuthorizeProject(p Principal, project *models.Project) Decision {
	if project == nil {
		return denied("no project")
	}
	return Authorize(p, project.OwnerUserID)
}

// RequireAdmin allows internal admins only.
func RequireAdmin(p Principal) Decision {
	if p.IsAdmin() {
		return allowed
	}
	return denied("admin role required")
}
