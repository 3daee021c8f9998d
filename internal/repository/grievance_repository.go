package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openmunicipal/civic-api/internal/models"
)

// GrievanceRepository provides database access for the case store.
type GrievanceRepository struct {
	db *sqlx.DB
}

// NewGrievanceRepository creates a new instance of GrievanceRepository.
func NewGrievanceRepository(db *sqlx.DB) *GrievanceRepository {
	return &GrievanceRepository{db: db}
}

const grievanceColumns = `id, user_id, department_id, municipality_id, title, description, status, created_at, updated_at`

// Create inserts a grievance record.
func (r *GrievanceRepository) Create(ctx context.Context, grievance *models.Grievance) error {
	if grievance.ID == "" {
		grievance.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	grievance.CreatedAt = now
	grievance.UpdatedAt = now

	const query = `INSERT INTO grievances (id, user_id, department_id, municipality_id, title, description, status, created_at, updated_at) VALUES (:id, :user_id, :department_id, :municipality_id, :title, :description, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grievance); err != nil {
		return fmt.Errorf("create grievance: %w", err)
	}
	return nil
}

// FindByID returns a grievance by identifier.
func (r *GrievanceRepository) FindByID(ctx context.Context, id string) (*models.Grievance, error) {
	query := fmt.Sprintf(`SELECT %s FROM grievances WHERE id = $1 LIMIT 1`, grievanceColumns)
	var grievance models.Grievance
	if err := r.db.GetContext(ctx, &grievance, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find grievance by id: %w", err)
	}
	return &grievance, nil
}

// List returns grievances matching the scope filter with a total count. The
// filter is produced by the policy layer before the query runs, so rows
// outside the caller's scope are never read.
func (r *GrievanceRepository) List(ctx context.Context, filter models.GrievanceFilter) ([]models.Grievance, int, error) {
	baseQuery := `FROM grievances WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.MunicipalityID != "" {
		conditions = append(conditions, fmt.Sprintf("municipality_id = $%d", len(args)+1))
		args = append(args, filter.MunicipalityID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", grievanceColumns, baseQuery, pageSize, offset)

	var grievances []models.Grievance
	if err := r.db.SelectContext(ctx, &grievances, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list grievances: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count grievances: %w", err)
	}

	return grievances, total, nil
}

// UpdateStatus sets the grievance status. A single UPDATE keeps concurrent
// transitions atomic at the row level; last writer wins.
func (r *GrievanceRepository) UpdateStatus(ctx context.Context, id string, status models.GrievanceStatus, updatedAt time.Time) error {
	const query = `UPDATE grievances SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("update grievance status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateResponse appends an entry to the grievance response thread.
func (r *GrievanceRepository) CreateResponse(ctx context.Context, response *models.GrievanceResponse) error {
	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	response.CreatedAt = now
	response.UpdatedAt = now

	const query = `INSERT INTO grievance_responses (id, grievance_id, user_id, response, created_at, updated_at) VALUES (:id, :grievance_id, :user_id, :response, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, response); err != nil {
		return fmt.Errorf("create grievance response: %w", err)
	}
	return nil
}

// ListResponses returns the response thread for a grievance in insertion
// order.
func (r *GrievanceRepository) ListResponses(ctx context.Context, grievanceID string) ([]models.GrievanceResponse, error) {
	const query = `SELECT id, grievance_id, user_id, response, created_at, updated_at FROM grievance_responses WHERE grievance_id = $1 ORDER BY created_at ASC`
	var responses []models.GrievanceResponse
	if err := r.db.SelectContext(ctx, &responses, query, grievanceID); err != nil {
		return nil, fmt.Errorf("list grievance responses: %w", err)
	}
	return responses, nil
}
