// Package policy is the single authorization surface for the platform. Every
// handler and service gates reads and writes through Authorize, and list
// queries obtain their scope through GrievanceScope before touching the
// store. The rules live here and nowhere else.
package policy

import (
	"github.com/openmunicipal/civic-api/internal/models"
	appErrors "github.com/openmunicipal/civic-api/pkg/errors"
)

// Action identifies an operation subject to authorization.
type Action string

const (
	ActionRegister         Action = "register"
	ActionReadDirectory    Action = "directory.read"
	ActionViewProfile      Action = "profile.view"
	ActionCreateFeedback   Action = "feedback.create"
	ActionCreateGrievance  Action = "grievance.create"
	ActionListGrievances   Action = "grievance.list"
	ActionViewGrievance    Action = "grievance.view"
	ActionRespondGrievance Action = "grievance.respond"
	ActionUpdateStatus     Action = "grievance.update_status"
	ActionExportGrievances Action = "grievance.export"
)

// Resource carries the attributes of a target record an action operates on.
type Resource struct {
	MunicipalityID string
	OwnerID        string
}

// Authorize evaluates the rule set for an identity/action pair. A nil claims
// value means the request is unauthenticated. The default outcome is deny.
func Authorize(claims *models.JWTClaims, action Action, res *Resource) error {
	// Registration and directory reads are open to anonymous callers.
	if action == ActionRegister || action == ActionReadDirectory {
		return nil
	}

	if claims == nil {
		return appErrors.ErrUnauthorized
	}

	switch action {
	case ActionViewProfile:
		return nil

	case ActionCreateFeedback, ActionCreateGrievance:
		if claims.Role != models.RoleCitizen {
			return appErrors.Clone(appErrors.ErrForbidden, "only citizens can submit this request")
		}
		return nil

	case ActionListGrievances:
		if !claims.Role.Valid() {
			return appErrors.ErrForbidden
		}
		return nil

	case ActionViewGrievance:
		if res == nil {
			return appErrors.ErrForbidden
		}
		if claims.Role == models.RoleCitizen && res.OwnerID == claims.UserID {
			return nil
		}
		if officialInScope(claims, res.MunicipalityID) {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "grievance is outside your scope")

	case ActionRespondGrievance, ActionUpdateStatus:
		if claims.Role != models.RoleOfficial {
			return appErrors.Clone(appErrors.ErrForbidden, "only officials can manage grievances")
		}
		if res == nil || !officialInScope(claims, res.MunicipalityID) {
			return appErrors.Clone(appErrors.ErrForbidden, "grievance belongs to another municipality")
		}
		return nil

	case ActionExportGrievances:
		if claims.Role != models.RoleOfficial || claims.MunicipalityID == nil {
			return appErrors.Clone(appErrors.ErrForbidden, "only officials can export grievances")
		}
		return nil
	}

	return appErrors.ErrForbidden
}

// GrievanceScope translates an identity into the filter applied to grievance
// list queries. The filter is pushed into the query itself so out-of-scope
// rows are never fetched.
func GrievanceScope(claims *models.JWTClaims) (models.GrievanceFilter, error) {
	if claims == nil {
		return models.GrievanceFilter{}, appErrors.ErrUnauthorized
	}

	switch claims.Role {
	case models.RoleOfficial:
		if claims.MunicipalityID == nil || *claims.MunicipalityID == "" {
			return models.GrievanceFilter{}, appErrors.Clone(appErrors.ErrForbidden, "official has no municipality affiliation")
		}
		return models.GrievanceFilter{MunicipalityID: *claims.MunicipalityID}, nil
	case models.RoleCitizen:
		return models.GrievanceFilter{UserID: claims.UserID}, nil
	}

	return models.GrievanceFilter{}, appErrors.ErrForbidden
}

func officialInScope(claims *models.JWTClaims, municipalityID string) bool {
	return claims.Role == models.RoleOfficial &&
		claims.MunicipalityID != nil &&
		*claims.MunicipalityID != "" &&
		*claims.MunicipalityID == municipalityID
}
