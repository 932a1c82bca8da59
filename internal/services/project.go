package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/projtrack/apiserver/internal/store"
	"github.com/projtrack/apiserver/types"
)

// ProjectRepository defines persistence operations for projects.
type ProjectRepository interface {
	GetByID(ctx context.Context, id int) (types.Project, error)
	List(ctx context.Context) ([]types.Project, error)
	ListByCompany(ctx context.Context, company string) ([]types.Project, error)
	Create(ctx context.Context, project types.Project) (types.Project, error)
	Update(ctx context.Context, project types.Project) (types.Project, error)
	Delete(ctx context.Context, id int) error
}

// ProjectService applies the company-scoping policy on top of project
// CRUD. Every method takes the caller explicitly; there is no ambient
// identity.
//
// Denials for non-admin callers outside the owning company are silent:
// Get returns a zero-valued project, Update returns the stored record
// unchanged, and Delete is a no-op. This mirrors the long-standing API
// contract; note that an empty object still confirms the id exists.
type ProjectService struct {
	repo     ProjectRepository
	notifier Notifier
}

func NewProjectService(repo ProjectRepository, notifier Notifier) *ProjectService {
	return &ProjectService{repo: repo, notifier: notifier}
}

// List returns every project for admins, and only the caller's
// company's projects for regular users.
func (s *ProjectService) List(ctx context.Context, caller types.User) ([]types.Project, error) {
	if caller.IsAdmin() {
		return s.repo.List(ctx)
	}
	return s.repo.ListByCompany(ctx, caller.CompanyName)
}

// Get returns the project if the caller may see it, the zero project
// otherwise. A missing id also yields the zero project.
func (s *ProjectService) Get(ctx context.Context, caller types.User, id int) (types.Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Project{}, nil
		}
		return types.Project{}, fmt.Errorf("load project: %w", err)
	}

	if caller.IsAdmin() || types.SameCompany(project.ClientCompany, caller.CompanyName) {
		return project, nil
	}

	log.Printf("user %s denied read of project %d owned by %q", caller.Email, id, project.ClientCompany)
	return types.Project{}, nil
}

// Create stores a new project stamped with the caller's company, email,
// and id. Any ownership fields on the payload are overwritten, and email
// notifications default to on.
func (s *ProjectService) Create(ctx context.Context, caller types.User, project types.Project) (types.Project, error) {
	project.ID = 0
	project.ClientCompany = caller.CompanyName
	project.ClientEmail = caller.Email
	project.CreatedBy = caller.ID
	enabled := true
	project.EmailNotifications = &enabled

	created, err := s.repo.Create(ctx, project)
	if err != nil {
		return types.Project{}, fmt.Errorf("create project: %w", err)
	}
	return created, nil
}

// Update saves changes to a project the caller owns (or any project, for
// admins). Ownership fields and the creation date always come from the
// stored record, never from the payload. If the status changed and
// notifications are enabled, a status-change email is dispatched after
// the save; the dispatch can never fail the update.
func (s *ProjectService) Update(ctx context.Context, caller types.User, id int, incoming types.Project) (types.Project, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("project %d not found for update", id)
			incoming.ID = id
			return incoming, nil
		}
		return types.Project{}, fmt.Errorf("load project: %w", err)
	}

	if !caller.IsAdmin() && !types.SameCompany(existing.ClientCompany, caller.CompanyName) {
		log.Printf("user %s denied update of project %d owned by %q", caller.Email, id, existing.ClientCompany)
		return existing, nil
	}

	statusChanged := existing.Status != "" && incoming.Status != "" && existing.Status != incoming.Status

	// The incoming flag wins when present; otherwise keep the stored one.
	notificationsEnabled := existing.NotificationsEnabled()
	if incoming.EmailNotifications != nil {
		notificationsEnabled = *incoming.EmailNotifications
	}

	incoming.ID = existing.ID
	incoming.ClientCompany = existing.ClientCompany
	incoming.ClientEmail = existing.ClientEmail
	incoming.CreatedBy = existing.CreatedBy
	incoming.CreatedDate = existing.CreatedDate
	incoming.EmailNotifications = &notificationsEnabled

	saved, err := s.repo.Update(ctx, incoming)
	if err != nil {
		return types.Project{}, fmt.Errorf("save project: %w", err)
	}

	if statusChanged && notificationsEnabled && existing.ClientEmail != "" {
		s.notifier.ProjectStatusChanged(ctx, existing.ClientEmail, existing.Name, existing.Status, incoming.Status)
	}

	return saved, nil
}

// Delete removes a project the caller owns (or any project, for admins).
// Unauthorized and missing ids are silent no-ops.
func (s *ProjectService) Delete(ctx context.Context, caller types.User, id int) error {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("project %d not found for deletion", id)
			return nil
		}
		return fmt.Errorf("load project: %w", err)
	}

	if !caller.IsAdmin() && !types.SameCompany(project.ClientCompany, caller.CompanyName) {
		log.Printf("user %s denied deletion of project %d owned by %q", caller.Email, id, project.ClientCompany)
		return nil
	}

	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}
