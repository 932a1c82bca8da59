package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/projtrack/apiserver/types"
)

// ProjectRepository handles persistence for projects.
type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, proj_name, client_company, client_email, proj_type, proj_title,
	curr_phase, status, proj_details, start_date, est_comp_date,
	created_by, email_notifications, created_date, updated_date`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (types.Project, error) {
	var project types.Project
	var notifications bool
	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.ClientCompany,
		&project.ClientEmail,
		&project.Type,
		&project.Title,
		&project.Phase,
		&project.Status,
		&project.Details,
		&project.StartDate,
		&project.EstCompDate,
		&project.CreatedBy,
		&notifications,
		&project.CreatedDate,
		&project.UpdatedDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Project{}, ErrNotFound
		}
		return types.Project{}, err
	}
	project.EmailNotifications = &notifications
	return project, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int) (types.Project, error) {
	const query = `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	return scanProject(r.db.QueryRowContext(ctx, query, id))
}

// List returns every project, newest first.
func (r *ProjectRepository) List(ctx context.Context) ([]types.Project, error) {
	const query = `SELECT ` + projectColumns + ` FROM projects ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProjects(rows)
}

// ListByCompany returns projects owned by the given company, matched
// case-insensitively.
func (r *ProjectRepository) ListByCompany(ctx context.Context, company string) ([]types.Project, error) {
	const query = `SELECT ` + projectColumns + `
		FROM projects
		WHERE LOWER(client_company) = LOWER($1)
		ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query, company)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProjects(rows)
}

func collectProjects(rows *sql.Rows) ([]types.Project, error) {
	projects := make([]types.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *ProjectRepository) Create(ctx context.Context, project types.Project) (types.Project, error) {
	now := time.Now()
	project.CreatedDate = now
	project.UpdatedDate = now

	const query = `
		INSERT INTO projects (proj_name, client_company, client_email, proj_type, proj_title,
			curr_phase, status, proj_details, start_date, est_comp_date,
			created_by, email_notifications, created_date, updated_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		project.Name,
		project.ClientCompany,
		project.ClientEmail,
		project.Type,
		project.Title,
		project.Phase,
		project.Status,
		project.Details,
		project.StartDate,
		project.EstCompDate,
		project.CreatedBy,
		project.NotificationsEnabled(),
		project.CreatedDate,
		project.UpdatedDate,
	).Scan(&project.ID); err != nil {
		return types.Project{}, err
	}
	return project, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project types.Project) (types.Project, error) {
	project.UpdatedDate = time.Now()

	const query = `
		UPDATE projects
		SET proj_name = $1,
			client_company = $2,
			client_email = $3,
			proj_type = $4,
			proj_title = $5,
			curr_phase = $6,
			status = $7,
			proj_details = $8,
			start_date = $9,
			est_comp_date = $10,
			created_by = $11,
			email_notifications = $12,
			updated_date = $13
		WHERE id = $14`
	result, err := r.db.ExecContext(
		ctx,
		query,
		project.Name,
		project.ClientCompany,
		project.ClientEmail,
		project.Type,
		project.Title,
		project.Phase,
		project.Status,
		project.Details,
		project.StartDate,
		project.EstCompDate,
		project.CreatedBy,
		project.NotificationsEnabled(),
		project.UpdatedDate,
		project.ID,
	)
	if err != nil {
		return types.Project{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Project{}, err
	}
	if affected == 0 {
		return types.Project{}, ErrNotFound
	}
	return project, nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM projects WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
