package entitlements

import "github.com/ourstoryourvoice/osov/app/models"

// Capability names an action guarded by role.
type Capability string

const (
	ManageContent      Capability = "manage_content"
	ReviewApplications Capability = "review_applications"
	ViewFundraising    Capability = "view_fundraising"
	Export             Capability = "export"
	ManageCampaigns    Capability = "manage_campaigns"
	ManageSite         Capability = "manage_site"
)

var staff = []string{models.ROLE_MODERATOR, models.ROLE_ADMIN}
var adminOnly = []string{models.ROLE_ADMIN}

var capabilityRoles = map[Capability][]string{
	ManageContent:      staff,
	ReviewApplications: staff,
	ViewFundraising:    staff,
	Export:             staff,
	ManageCampaigns:    adminOnly,
	ManageSite:         adminOnly,
}

// Staff lists the roles allowed into the admin area.
func Staff() []string {
	return append([]string(nil), staff...)
}

// Allowed reports whether role is one of required. An empty required list
// only asks for a signed-in role.
func Allowed(role string, required ...string) bool {
	if role == "" {
		return false
	}
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}

// Can reports whether role holds the capability. Unknown capabilities are denied.
func Can(role string, capability Capability) bool {
	roles, ok := capabilityRoles[capability]
	if !ok {
		return false
	}
	return Allowed(role, roles...)
}
