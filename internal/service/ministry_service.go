package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"churchadmin/internal/access"
	apperrors "churchadmin/internal/errors"
	"churchadmin/internal/model"
	"churchadmin/internal/repository"
)

// MinistryInput creates or replaces a ministry.
type MinistryInput struct {
	Name         string `json:"name" validate:"required,max=150"`
	Description  string `json:"description"`
	LeaderID     *uint  `json:"leader_id"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email,max=255"`
	ContactPhone string `json:"contact_phone" validate:"omitempty,max=30"`
	IsActive     *bool  `json:"is_active"`
}

// AddMemberInput adds a user to a ministry.
type AddMemberInput struct {
	UserID     uint   `json:"user_id" validate:"required"`
	Role       string `json:"role" validate:"omitempty,max=50"`
	JoinedDate string `json:"joined_date"`
}

var ErrMinistryNameTaken = apperrors.Conflict("the ministry name has already been taken")

// MinistryService manages ministries and their membership.
type MinistryService interface {
	List(ctx context.Context, filter repository.MinistryFilter, page repository.Pagination) ([]model.Ministry, int64, error)
	Get(ctx context.Context, id uint) (*model.Ministry, error)
	Create(ctx context.Context, in MinistryInput) (*model.Ministry, error)
	Update(ctx context.Context, id uint, in MinistryInput) (*model.Ministry, error)
	Delete(ctx context.Context, id uint) error
	Members(ctx context.Context, ministryID uint) ([]model.MinistryMember, error)
	AddMember(ctx context.Context, actor *access.Identity, ministryID uint, in AddMemberInput) (*model.MinistryMember, error)
	RemoveMember(ctx context.Context, actor *access.Identity, ministryID, userID uint) error
}

type ministryService struct {
	ministries repository.MinistryRepository
	users      repository.UserRepository
	now        Clock
}

// NewMinistryService creates a new ministry service.
func NewMinistryService(ministries repository.MinistryRepository, users repository.UserRepository, now Clock) MinistryService {
	return &ministryService{ministries: ministries, users: users, now: now}
}

func (s *ministryService) List(ctx context.Context, filter repository.MinistryFilter, page repository.Pagination) ([]model.Ministry, int64, error) {
	return s.ministries.List(ctx, filter, page)
}

func (s *ministryService) Get(ctx context.Context, id uint) (*model.Ministry, error) {
	m, err := s.ministries.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "ministry")
	}
	return m, nil
}

func (s *ministryService) Create(ctx context.Context, in MinistryInput) (*model.Ministry, error) {
	if err := s.checkLeader(ctx, in.LeaderID); err != nil {
		return nil, err
	}
	m := &model.Ministry{IsActive: true}
	applyMinistry(m, in)

	if err := s.ministries.Create(ctx, m); err != nil {
		return nil, conflictOnDuplicate(err, ErrMinistryNameTaken.Error())
	}
	if !m.IsActive {
		if err := s.ministries.Update(ctx, m); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, m.ID)
}

func (s *ministryService) Update(ctx context.Context, id uint, in MinistryInput) (*model.Ministry, error) {
	m, err := s.ministries.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "ministry")
	}
	if err := s.checkLeader(ctx, in.LeaderID); err != nil {
		return nil, err
	}
	applyMinistry(m, in)
	m.Leader = nil
	if err := s.ministries.Update(ctx, m); err != nil {
		return nil, conflictOnDuplicate(err, ErrMinistryNameTaken.Error())
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes the ministry. Ledger rows keep their ministry_id.
func (s *ministryService) Delete(ctx context.Context, id uint) error {
	return notFound(s.ministries.Delete(ctx, id), "ministry")
}

func (s *ministryService) Members(ctx context.Context, ministryID uint) ([]model.MinistryMember, error) {
	if _, err := s.ministries.FindByID(ctx, ministryID); err != nil {
		return nil, notFound(err, "ministry")
	}
	return s.ministries.Members(ctx, ministryID)
}

func (s *ministryService) AddMember(ctx context.Context, actor *access.Identity, ministryID uint, in AddMemberInput) (*model.MinistryMember, error) {
	m, err := s.manageable(ctx, actor, ministryID)
	if err != nil {
		return nil, err
	}

	verr := &apperrors.ValidationError{}
	joined := parseOptionalDate(verr, "joined_date", in.JoinedDate)
	if _, err := s.users.FindByID(ctx, in.UserID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		verr.Add("user_id", "the selected user does not exist")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.ministries.FindMember(ctx, m.ID, in.UserID); err == nil {
		return nil, apperrors.Conflict("user is already a member of this ministry")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	member := &model.MinistryMember{
		MinistryID: m.ID,
		UserID:     in.UserID,
		Role:       strings.TrimSpace(in.Role),
		IsActive:   true,
	}
	if member.Role == "" {
		member.Role = "member"
	}
	if joined != nil {
		member.JoinedDate = *joined
	} else {
		member.JoinedDate = s.now()
	}
	if err := s.ministries.AddMember(ctx, member); err != nil {
		return nil, conflictOnDuplicate(err, "user is already a member of this ministry")
	}
	return member, nil
}

func (s *ministryService) RemoveMember(ctx context.Context, actor *access.Identity, ministryID, userID uint) error {
	if _, err := s.manageable(ctx, actor, ministryID); err != nil {
		return err
	}
	if err := s.ministries.RemoveMember(ctx, ministryID, userID); err != nil {
		return notFound(err, "ministry member")
	}
	return nil
}

// manageable loads the ministry and checks the actor leads it or holds
// manage_ministry_members.
func (s *ministryService) manageable(ctx context.Context, actor *access.Identity, ministryID uint) (*model.Ministry, error) {
	m, err := s.ministries.FindByID(ctx, ministryID)
	if err != nil {
		return nil, notFound(err, "ministry")
	}
	var leader uint
	if m.LeaderID != nil {
		leader = *m.LeaderID
	}
	if err := access.Check(actor, access.AnyOf(
		access.OwnedBy(leader),
		access.Permission(access.PermManageMinistryMembers),
	)); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *ministryService) checkLeader(ctx context.Context, leaderID *uint) error {
	if leaderID == nil {
		return nil
	}
	if _, err := s.users.FindByID(ctx, *leaderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewValidationError("leader_id", "the selected leader does not exist")
		}
		return err
	}
	return nil
}

func applyMinistry(m *model.Ministry, in MinistryInput) {
	m.Name = strings.TrimSpace(in.Name)
	m.Description = in.Description
	m.LeaderID = in.LeaderID
	m.ContactEmail = in.ContactEmail
	m.ContactPhone = in.ContactPhone
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
}
