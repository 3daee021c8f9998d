package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openmunicipal/civic-api/internal/models"
	appErrors "github.com/openmunicipal/civic-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

func citizenClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleCitizen}
}

func officialClaims(id, municipality string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleOfficial, MunicipalityID: strPtr(municipality)}
}

type mockGrievanceRepo struct {
	grievances map[string]*models.Grievance
	responses  map[string][]models.GrievanceResponse
	lastFilter models.GrievanceFilter
	listResult []models.Grievance
	listCalled bool
}

func newMockGrievanceRepo() *mockGrievanceRepo {
	return &mockGrievanceRepo{
		grievances: make(map[string]*models.Grievance),
		responses:  make(map[string][]models.GrievanceResponse),
	}
}

func (m *mockGrievanceRepo) Create(ctx context.Context, grievance *models.Grievance) error {
	if grievance.ID == "" {
		grievance.ID = "g-" + grievance.Title
	}
	grievance.CreatedAt = time.Now().UTC()
	grievance.UpdatedAt = grievance.CreatedAt
	copy := *grievance
	m.grievances[grievance.ID] = &copy
	return nil
}

func (m *mockGrievanceRepo) FindByID(ctx context.Context, id string) (*models.Grievance, error) {
	if g, ok := m.grievances[id]; ok {
		copy := *g
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGrievanceRepo) List(ctx context.Context, filter models.GrievanceFilter) ([]models.Grievance, int, error) {
	m.listCalled = true
	m.lastFilter = filter
	return m.listResult, len(m.listResult), nil
}

func (m *mockGrievanceRepo) UpdateStatus(ctx context.Context, id string, status models.GrievanceStatus, updatedAt time.Time) error {
	g, ok := m.grievances[id]
	if !ok {
		return sql.ErrNoRows
	}
	g.Status = status
	g.UpdatedAt = updatedAt
	return nil
}

func (m *mockGrievanceRepo) CreateResponse(ctx context.Context, response *models.GrievanceResponse) error {
	if response.ID == "" {
		response.ID = "r1"
	}
	response.CreatedAt = time.Now().UTC()
	m.responses[response.GrievanceID] = append(m.responses[response.GrievanceID], *response)
	return nil
}

func (m *mockGrievanceRepo) ListResponses(ctx context.Context, grievanceID string) ([]models.GrievanceResponse, error) {
	return m.responses[grievanceID], nil
}

type mockDirectoryRepo struct {
	serves         map[string]bool
	municipalities map[string]bool
}

func (m *mockDirectoryRepo) ListStates(ctx context.Context) ([]models.State, error) {
	return nil, nil
}

func (m *mockDirectoryRepo) ListMunicipalities(ctx context.Context, stateID string) ([]models.Municipality, error) {
	return nil, nil
}

func (m *mockDirectoryRepo) ListDepartments(ctx context.Context, municipalityID string) ([]models.Department, error) {
	return nil, nil
}

func (m *mockDirectoryRepo) MunicipalityExists(ctx context.Context, id string) (bool, error) {
	return m.municipalities[id], nil
}

func (m *mockDirectoryRepo) DepartmentServesMunicipality(ctx context.Context, departmentID, municipalityID string) (bool, error) {
	return m.serves[departmentID+":"+municipalityID], nil
}

type mockAudit struct {
	logs []*models.AuditLog
}

func (m *mockAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func newGrievanceService(repo *mockGrievanceRepo, audit *mockAudit) *GrievanceService {
	directory := &mockDirectoryRepo{
		serves:         map[string]bool{"d1:m1": true},
		municipalities: map[string]bool{"m1": true},
	}
	return NewGrievanceService(repo, directory, audit, nil, validator.New(), zap.NewNop())
}

func TestGrievanceCreateStartsOpen(t *testing.T) {
	repo := newMockGrievanceRepo()
	svc := newGrievanceService(repo, nil)

	grievance, err := svc.Create(context.Background(), citizenClaims("c1"), "m1", "d1", CreateGrievanceRequest{Title: "Streetlight out", Description: "Dark corner"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, grievance.Status)
	assert.Equal(t, "c1", grievance.UserID)
	assert.Equal(t, "m1", grievance.MunicipalityID)
	assert.Equal(t, "d1", grievance.DepartmentID)
}

func TestGrievanceCreateForbiddenForOfficial(t *testing.T) {
	repo := newMockGrievanceRepo()
	svc := newGrievanceService(repo, nil)

	_, err := svc.Create(context.Background(), officialClaims("o1", "m1"), "m1", "d1", CreateGrievanceRequest{Title: "x", Description: "y"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.grievances, "no write on authorization failure")
}

func TestGrievanceCreateUnreachableDepartment(t *testing.T) {
	repo := newMockGrievanceRepo()
	svc := newGrievanceService(repo, nil)

	_, err := svc.Create(context.Background(), citizenClaims("c1"), "m2", "d1", CreateGrievanceRequest{Title: "x", Description: "y"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGrievanceListScopesOfficialToMunicipality(t *testing.T) {
	repo := newMockGrievanceRepo()
	svc := newGrievanceService(repo, nil)

	_, _, err := svc.List(context.Background(), officialClaims("o1", "m1"), nil, 1, 20)
	require.NoError(t, err)
	assert.True(t, repo.listCalled)
	assert.Equal(t, "m1", repo.lastFilter.MunicipalityID)
	assert.Empty(t, repo.lastFilter.UserID)
}

func TestGrievanceListScopesCitizenToOwnRecords(t *testing.T) {
	repo := newMockGrievanceRepo()
	svc := newGrievanceService(repo, nil)

	_, _, err := svc.List(context.Background(), citizenClaims("c1"), nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, "c1", repo.lastFilter.UserID)
	assert.Empty(t, repo.lastFilter.MunicipalityID)
}

func TestGrievanceListUnaffiliatedOfficialDenied(t *testing.T) {
	repo := newMockGrievanceRepo()
	svc := newGrievanceService(repo, nil)

	_, _, err := svc.List(context.Background(), &models.JWTClaims{UserID: "o1", Role: models.RoleOfficial}, nil, 1, 20)
	require.Error(t, err)
	assert.False(t, repo.listCalled, "scope denial must happen before the query")
}

func TestGrievanceGetVisibility(t *testing.T) {
	repo := newMockGrievanceRepo()
	svc := newGrievanceService(repo, nil)

	repo.grievances["g1"] = &models.Grievance{ID: "g1", UserID: "c1", MunicipalityID: "m1", DepartmentID: "d1", Title: "t", Status: models.StatusOpen}

	detail, err := svc.Get(context.Background(), citizenClaims("c1"), "g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", detail.ID)

	_, err = svc.Get(context.Background(), citizenClaims("c2"), "g1")
	require.Error(t, err, "other citizens cannot see the grievance")

	_, err = svc.Get(context.Background(), officialClaims("o1", "m1"), "g1")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), officialClaims("o2", "m2"), "g1")
	require.Error(t, err, "grievance is invisible outside its municipality")
}

func TestRespondScopedToMunicipality(t *testing.T) {
	repo := newMockGrievanceRepo()
	audit := &mockAudit{}
	svc := newGrievanceService(repo, audit)

	repo.grievances["g1"] = &models.Grievance{ID: "g1", UserID: "c1", MunicipalityID: "m1", Status: models.StatusOpen}

	response, err := svc.Respond(context.Background(), officialClaims("o1", "m1"), "g1", RespondRequest{Response: "Crew dispatched"})
	require.NoError(t, err)
	assert.Equal(t, "o1", response.UserID)
	assert.NotEmpty(t, audit.logs)
	assert.Equal(t, models.StatusOpen, repo.grievances["g1"].Status, "responding does not change status")

	_, err = svc.Respond(context.Background(), officialClaims("o2", "m2"), "g1", RespondRequest{Response: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Respond(context.Background(), citizenClaims("c1"), "g1", RespondRequest{Response: "me too"})
	require.Error(t, err, "citizens cannot respond")
}

func TestRespondMissingGrievance(t *testing.T) {
	svc := newGrievanceService(newMockGrievanceRepo(), nil)

	_, err := svc.Respond(context.Background(), officialClaims("o1", "m1"), "missing", RespondRequest{Response: "hello"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusRoundTrip(t *testing.T) {
	repo := newMockGrievanceRepo()
	audit := &mockAudit{}
	svc := newGrievanceService(repo, audit)

	repo.grievances["g1"] = &models.Grievance{ID: "g1", UserID: "c1", MunicipalityID: "m1", Title: "Streetlight out", Description: "Dark corner", Status: models.StatusOpen}

	updated, err := svc.UpdateStatus(context.Background(), officialClaims("o1", "m1"), "g1", UpdateStatusRequest{Status: models.StatusClosed})
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, updated.Status)
	assert.Equal(t, "Streetlight out", updated.Title)
	assert.Equal(t, "Dark corner", updated.Description)
	assert.Equal(t, models.StatusClosed, repo.grievances["g1"].Status)
	assert.NotEmpty(t, audit.logs)
}

func TestUpdateStatusInvalidValue(t *testing.T) {
	repo := newMockGrievanceRepo()
	svc := newGrievanceService(repo, nil)

	repo.grievances["g1"] = &models.Grievance{ID: "g1", UserID: "c1", MunicipalityID: "m1", Status: models.StatusOpen}

	_, err := svc.UpdateStatus(context.Background(), officialClaims("o1", "m1"), "g1", UpdateStatusRequest{Status: models.GrievanceStatus("ARCHIVED")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.StatusOpen, repo.grievances["g1"].Status, "invalid value rejected, not coerced")
}

func TestScopeDenialWinsOverBadPayload(t *testing.T) {
	repo := newMockGrievanceRepo()
	svc := newGrievanceService(repo, nil)

	repo.grievances["g1"] = &models.Grievance{ID: "g1", UserID: "c1", MunicipalityID: "m1", Status: models.StatusOpen}

	_, err := svc.UpdateStatus(context.Background(), officialClaims("o2", "m2"), "g1", UpdateStatusRequest{Status: models.GrievanceStatus("BOGUS")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code, "municipality mismatch outranks the invalid status value")

	_, err = svc.Respond(context.Background(), officialClaims("o2", "m2"), "g1", RespondRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code, "municipality mismatch outranks the empty response text")
	assert.Empty(t, repo.responses["g1"])
}

func TestUpdateStatusForbiddenOutsideScope(t *testing.T) {
	repo := newMockGrievanceRepo()
	svc := newGrievanceService(repo, nil)

	repo.grievances["g1"] = &models.Grievance{ID: "g1", UserID: "c1", MunicipalityID: "m1", Status: models.StatusOpen}

	_, err := svc.UpdateStatus(context.Background(), officialClaims("o2", "m2"), "g1", UpdateStatusRequest{Status: models.StatusClosed})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.StatusOpen, repo.grievances["g1"].Status, "no state change on denial")
}
