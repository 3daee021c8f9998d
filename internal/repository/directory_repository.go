package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/openmunicipal/civic-api/internal/models"
)

// DirectoryRepository reads the state/municipality/department hierarchy.
// The directory is seeded out-of-band and treated as read-only here.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository creates a new instance of DirectoryRepository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// ListStates returns all states ordered by name.
func (r *DirectoryRepository) ListStates(ctx context.Context) ([]models.State, error) {
	const query = `SELECT id, name, created_at FROM states ORDER BY name ASC`
	var states []models.State
	if err := r.db.SelectContext(ctx, &states, query); err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	return states, nil
}

// ListMunicipalities returns municipalities, optionally filtered by state.
// An unknown state id simply yields an empty slice.
func (r *DirectoryRepository) ListMunicipalities(ctx context.Context, stateID string) ([]models.Municipality, error) {
	var municipalities []models.Municipality
	if stateID != "" {
		const query = `SELECT id, name, state_id, created_at FROM municipalities WHERE state_id = $1 ORDER BY name ASC`
		if err := r.db.SelectContext(ctx, &municipalities, query, stateID); err != nil {
			return nil, fmt.Errorf("list municipalities by state: %w", err)
		}
		return municipalities, nil
	}

	const query = `SELECT id, name, state_id, created_at FROM municipalities ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &municipalities, query); err != nil {
		return nil, fmt.Errorf("list municipalities: %w", err)
	}
	return municipalities, nil
}

// MunicipalityExists reports whether the given municipality id is known.
func (r *DirectoryRepository) MunicipalityExists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM municipalities WHERE id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check municipality: %w", err)
	}
	return exists, nil
}

// ListDepartments returns departments reachable from a municipality.
func (r *DirectoryRepository) ListDepartments(ctx context.Context, municipalityID string) ([]models.Department, error) {
	const query = `SELECT d.id, d.name, d.created_at FROM departments d JOIN department_municipalities dm ON dm.department_id = d.id WHERE dm.municipality_id = $1 ORDER BY d.name ASC`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query, municipalityID); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// DepartmentServesMunicipality checks the membership edge between a
// department and a municipality. The association may be one-to-many or
// many-to-many depending on deployment; the join table covers both.
func (r *DirectoryRepository) DepartmentServesMunicipality(ctx context.Context, departmentID, municipalityID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM department_municipalities WHERE department_id = $1 AND municipality_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, departmentID, municipalityID); err != nil {
		return false, fmt.Errorf("check department membership: %w", err)
	}
	return exists, nil
}
