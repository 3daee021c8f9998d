package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmunicipal/civic-api/internal/models"
	appErrors "github.com/openmunicipal/civic-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

func citizen(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleCitizen}
}

func official(id, municipality string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleOfficial, MunicipalityID: strPtr(municipality)}
}

func TestAuthorizeAnonymous(t *testing.T) {
	assert.NoError(t, Authorize(nil, ActionRegister, nil))
	assert.NoError(t, Authorize(nil, ActionReadDirectory, nil))

	for _, action := range []Action{
		ActionViewProfile, ActionCreateFeedback, ActionCreateGrievance,
		ActionListGrievances, ActionRespondGrievance, ActionUpdateStatus,
		ActionExportGrievances,
	} {
		err := Authorize(nil, action, nil)
		require.Error(t, err, string(action))
		assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	}
}

func TestAuthorizeCreateActionsCitizenOnly(t *testing.T) {
	for _, action := range []Action{ActionCreateFeedback, ActionCreateGrievance} {
		assert.NoError(t, Authorize(citizen("c1"), action, nil))

		err := Authorize(official("o1", "m1"), action, nil)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	}
}

func TestAuthorizeOfficialScopedActions(t *testing.T) {
	res := &Resource{MunicipalityID: "m1", OwnerID: "c1"}

	for _, action := range []Action{ActionRespondGrievance, ActionUpdateStatus} {
		assert.NoError(t, Authorize(official("o1", "m1"), action, res))

		err := Authorize(official("o2", "m2"), action, res)
		require.Error(t, err, "municipality mismatch must deny")
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

		err = Authorize(citizen("c1"), action, res)
		require.Error(t, err, "citizens never manage grievances")
	}
}

func TestAuthorizeOfficialWithoutMunicipality(t *testing.T) {
	claims := &models.JWTClaims{UserID: "o1", Role: models.RoleOfficial}
	err := Authorize(claims, ActionUpdateStatus, &Resource{MunicipalityID: "m1"})
	require.Error(t, err)

	err = Authorize(claims, ActionExportGrievances, nil)
	require.Error(t, err)
}

func TestAuthorizeViewGrievance(t *testing.T) {
	res := &Resource{MunicipalityID: "m1", OwnerID: "c1"}

	assert.NoError(t, Authorize(citizen("c1"), ActionViewGrievance, res))
	assert.Error(t, Authorize(citizen("c2"), ActionViewGrievance, res))
	assert.NoError(t, Authorize(official("o1", "m1"), ActionViewGrievance, res))
	assert.Error(t, Authorize(official("o1", "m2"), ActionViewGrievance, res))
}

func TestAuthorizeUnknownActionDenied(t *testing.T) {
	err := Authorize(citizen("c1"), Action("grievance.delete"), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestGrievanceScopeOfficial(t *testing.T) {
	filter, err := GrievanceScope(official("o1", "m1"))
	require.NoError(t, err)
	assert.Equal(t, "m1", filter.MunicipalityID)
	assert.Empty(t, filter.UserID)
}

func TestGrievanceScopeCitizen(t *testing.T) {
	filter, err := GrievanceScope(citizen("c1"))
	require.NoError(t, err)
	assert.Equal(t, "c1", filter.UserID)
	assert.Empty(t, filter.MunicipalityID)
}

func TestGrievanceScopeDenied(t *testing.T) {
	_, err := GrievanceScope(nil)
	require.Error(t, err)

	_, err = GrievanceScope(&models.JWTClaims{UserID: "o1", Role: models.RoleOfficial})
	require.Error(t, err, "official without affiliation has no scope")

	_, err = GrievanceScope(&models.JWTClaims{UserID: "x", Role: models.UserRole("AUDITOR")})
	require.Error(t, err, "unknown role sees no records")
}
