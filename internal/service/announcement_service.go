package service

import (
	"context"
	"strings"
	"time"

	"churchadmin/internal/access"
	apperrors "churchadmin/internal/errors"
	"churchadmin/internal/model"
	"churchadmin/internal/repository"
)

// AnnouncementInput creates or replaces an announcement.
type AnnouncementInput struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Content     string     `json:"content" validate:"required"`
	Type        string     `json:"type" validate:"omitempty,oneof=general event ministry financial prayer"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	IsPublished bool       `json:"is_published"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// AnnouncementService manages announcements.
type AnnouncementService interface {
	List(ctx context.Context, actor *access.Identity, filter repository.AnnouncementFilter, page repository.Pagination) ([]model.Announcement, int64, error)
	Get(ctx context.Context, actor *access.Identity, id uint) (*model.Announcement, error)
	Create(ctx context.Context, actor *access.Identity, in AnnouncementInput) (*model.Announcement, error)
	Update(ctx context.Context, actor *access.Identity, id uint, in AnnouncementInput) (*model.Announcement, error)
	Delete(ctx context.Context, actor *access.Identity, id uint) error
	Publish(ctx context.Context, actor *access.Identity, id uint) (*model.Announcement, error)
	Unpublish(ctx context.Context, actor *access.Identity, id uint) (*model.Announcement, error)
}

type announcementService struct {
	announcements repository.AnnouncementRepository
	now           Clock
}

// NewAnnouncementService creates a new announcement service.
func NewAnnouncementService(announcements repository.AnnouncementRepository, now Clock) AnnouncementService {
	return &announcementService{announcements: announcements, now: now}
}

var authorRoles = access.AnyRole(access.RolePastor, access.RoleFinanceCommittee, access.RoleAdministrator)

// List shows active announcements. Administrators may list drafts and
// expired entries by passing a published filter.
func (s *announcementService) List(ctx context.Context, actor *access.Identity, filter repository.AnnouncementFilter, page repository.Pagination) ([]model.Announcement, int64, error) {
	filter.Now = s.now()
	if actor.HasRole(access.RoleAdministrator) {
		filter.ActiveOnly = filter.Published == nil
	} else {
		filter.ActiveOnly = true
		filter.Published = nil
	}
	return s.announcements.List(ctx, filter, page)
}

func (s *announcementService) Get(ctx context.Context, actor *access.Identity, id uint) (*model.Announcement, error) {
	a, err := s.announcements.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "announcement")
	}
	if !a.IsActive(s.now()) && !access.Authorize(actor, s.ownerReq(a)) {
		return nil, apperrors.NotFound("announcement")
	}
	return a, nil
}

func (s *announcementService) Create(ctx context.Context, actor *access.Identity, in AnnouncementInput) (*model.Announcement, error) {
	if err := access.Check(actor, authorRoles); err != nil {
		return nil, err
	}
	if err := s.validate(in); err != nil {
		return nil, err
	}
	a := &model.Announcement{AuthorID: actor.UserID}
	applyAnnouncement(a, in)
	if a.IsPublished {
		now := s.now()
		a.PublishedAt = &now
	}
	if err := s.announcements.Create(ctx, a); err != nil {
		return nil, err
	}
	return s.announcements.FindByID(ctx, a.ID)
}

func (s *announcementService) Update(ctx context.Context, actor *access.Identity, id uint, in AnnouncementInput) (*model.Announcement, error) {
	a, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(in); err != nil {
		return nil, err
	}
	wasPublished := a.IsPublished
	applyAnnouncement(a, in)
	switch {
	case a.IsPublished && a.PublishedAt == nil:
		now := s.now()
		a.PublishedAt = &now
	case !a.IsPublished && wasPublished:
		a.PublishedAt = nil
	}
	a.Author = nil
	if err := s.announcements.Update(ctx, a); err != nil {
		return nil, err
	}
	return s.announcements.FindByID(ctx, id)
}

func (s *announcementService) Delete(ctx context.Context, actor *access.Identity, id uint) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return notFound(s.announcements.Delete(ctx, id), "announcement")
}

// Publish marks the announcement published. published_at is set only the
// first time.
func (s *announcementService) Publish(ctx context.Context, actor *access.Identity, id uint) (*model.Announcement, error) {
	if err := access.Check(actor, authorRoles); err != nil {
		return nil, err
	}
	a, err := s.announcements.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "announcement")
	}
	if a.IsPublished && a.PublishedAt != nil {
		return a, nil
	}
	a.IsPublished = true
	if a.PublishedAt == nil {
		now := s.now()
		a.PublishedAt = &now
	}
	a.Author = nil
	if err := s.announcements.Update(ctx, a); err != nil {
		return nil, err
	}
	return s.announcements.FindByID(ctx, id)
}

func (s *announcementService) Unpublish(ctx context.Context, actor *access.Identity, id uint) (*model.Announcement, error) {
	if err := access.Check(actor, authorRoles); err != nil {
		return nil, err
	}
	a, err := s.announcements.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "announcement")
	}
	a.IsPublished = false
	a.PublishedAt = nil
	a.Author = nil
	if err := s.announcements.Update(ctx, a); err != nil {
		return nil, err
	}
	return s.announcements.FindByID(ctx, id)
}

func (s *announcementService) owned(ctx context.Context, actor *access.Identity, id uint) (*model.Announcement, error) {
	a, err := s.announcements.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "announcement")
	}
	if err := access.Check(actor, s.ownerReq(a)); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *announcementService) ownerReq(a *model.Announcement) access.Requirement {
	return access.AnyOf(access.OwnedBy(a.AuthorID), access.AnyRole(access.RoleAdministrator))
}

func (s *announcementService) validate(in AnnouncementInput) error {
	verr := &apperrors.ValidationError{}
	if strings.TrimSpace(in.Title) == "" {
		verr.Add("title", "the title field is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		verr.Add("content", "the content field is required")
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(s.now()) {
		verr.Add("expires_at", "the expiry date must be in the future")
	}
	return verr.OrNil()
}

func applyAnnouncement(a *model.Announcement, in AnnouncementInput) {
	a.Title = strings.TrimSpace(in.Title)
	a.Content = in.Content
	a.Type = model.AnnouncementType(in.Type)
	if a.Type == "" {
		a.Type = model.AnnouncementGeneral
	}
	a.Priority = model.AnnouncementPriority(in.Priority)
	if a.Priority == "" {
		a.Priority = model.AnnouncementMedium
	}
	a.IsPublished = in.IsPublished
	a.ExpiresAt = in.ExpiresAt
}
