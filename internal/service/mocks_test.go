package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"churchadmin/internal/access"
	"churchadmin/internal/ledger"
	"churchadmin/internal/model"
	"churchadmin/internal/notify"
	"churchadmin/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindWithGraph(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter repository.UserFilter, page repository.Pagination) ([]model.User, int64, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) AttachRole(ctx context.Context, userID uint, role *model.Role) error {
	return m.Called(ctx, userID, role).Error(0)
}

func (m *MockUserRepository) DetachRole(ctx context.Context, userID uint, role *model.Role) error {
	return m.Called(ctx, userID, role).Error(0)
}

func (m *MockUserRepository) ActiveIDs(ctx context.Context) ([]uint, error) {
	args := m.Called(ctx)
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context, activeOnly bool) (int64, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) RoleDistribution(ctx context.Context) ([]repository.RoleCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repository.RoleCount), args.Error(1)
}

func (m *MockUserRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.UserRepository) error) error {
	if err := m.Called(ctx, fn).Error(0); err != nil {
		return err
	}
	return fn(ctx, m)
}

// MockRoleRepository is a mock implementation of RoleRepository.
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Role), args.Error(1)
}

func (m *MockRoleRepository) List(ctx context.Context) ([]model.Role, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Role), args.Error(1)
}

func (m *MockRoleRepository) EnsurePermission(ctx context.Context, perm *model.Permission) error {
	return m.Called(ctx, perm).Error(0)
}

func (m *MockRoleRepository) EnsureRole(ctx context.Context, role *model.Role) error {
	return m.Called(ctx, role).Error(0)
}

func (m *MockRoleRepository) SyncPermissions(ctx context.Context, role *model.Role, names []string) error {
	return m.Called(ctx, role, names).Error(0)
}

// MockMinistryRepository is a mock implementation of MinistryRepository.
type MockMinistryRepository struct {
	mock.Mock
}

func (m *MockMinistryRepository) Create(ctx context.Context, ministry *model.Ministry) error {
	return m.Called(ctx, ministry).Error(0)
}

func (m *MockMinistryRepository) Update(ctx context.Context, ministry *model.Ministry) error {
	return m.Called(ctx, ministry).Error(0)
}

func (m *MockMinistryRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockMinistryRepository) FindByID(ctx context.Context, id uint) (*model.Ministry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ministry), args.Error(1)
}

func (m *MockMinistryRepository) List(ctx context.Context, filter repository.MinistryFilter, page repository.Pagination) ([]model.Ministry, int64, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]model.Ministry), args.Get(1).(int64), args.Error(2)
}

func (m *MockMinistryRepository) Names(ctx context.Context, ids []uint) (map[uint]string, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uint]string), args.Error(1)
}

func (m *MockMinistryRepository) Members(ctx context.Context, ministryID uint) ([]model.MinistryMember, error) {
	args := m.Called(ctx, ministryID)
	return args.Get(0).([]model.MinistryMember), args.Error(1)
}

func (m *MockMinistryRepository) FindMember(ctx context.Context, ministryID, userID uint) (*model.MinistryMember, error) {
	args := m.Called(ctx, ministryID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MinistryMember), args.Error(1)
}

func (m *MockMinistryRepository) AddMember(ctx context.Context, member *model.MinistryMember) error {
	return m.Called(ctx, member).Error(0)
}

func (m *MockMinistryRepository) RemoveMember(ctx context.Context, ministryID, userID uint) error {
	return m.Called(ctx, ministryID, userID).Error(0)
}

func (m *MockMinistryRepository) ActiveMemberIDs(ctx context.Context, ministryID uint) ([]uint, error) {
	args := m.Called(ctx, ministryID)
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockMinistryRepository) ForUser(ctx context.Context, userID uint) ([]model.MinistryMember, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.MinistryMember), args.Error(1)
}

func (m *MockMinistryRepository) Count(ctx context.Context, activeOnly bool) (int64, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).(int64), args.Error(1)
}

// MockMessageRepository is a mock implementation of MessageRepository.
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *model.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockMessageRepository) CreateBatch(ctx context.Context, msgs []model.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

func (m *MockMessageRepository) Update(ctx context.Context, msg *model.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockMessageRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockMessageRepository) FindByID(ctx context.Context, id uint) (*model.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockMessageRepository) List(ctx context.Context, filter repository.MessageFilter, page repository.Pagination) ([]model.Message, int64, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]model.Message), args.Get(1).(int64), args.Error(2)
}

func (m *MockMessageRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.MessageRepository) error) error {
	if err := m.Called(ctx, fn).Error(0); err != nil {
		return err
	}
	return fn(ctx, m)
}

// MockContributionRepository is a mock implementation of ContributionRepository.
type MockContributionRepository struct {
	mock.Mock
}

func (m *MockContributionRepository) Create(ctx context.Context, c *model.Contribution) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockContributionRepository) Update(ctx context.Context, c *model.Contribution) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockContributionRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockContributionRepository) FindByID(ctx context.Context, id uint) (*model.Contribution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contribution), args.Error(1)
}

func (m *MockContributionRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Contribution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contribution), args.Error(1)
}

func (m *MockContributionRepository) List(ctx context.Context, filter ledger.Filter, page repository.Pagination) ([]model.Contribution, int64, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]model.Contribution), args.Get(1).(int64), args.Error(2)
}

func (m *MockContributionRepository) Find(ctx context.Context, filter ledger.Filter) ([]model.Contribution, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.Contribution), args.Error(1)
}

func (m *MockContributionRepository) CountContributors(ctx context.Context, r ledger.DateRange) (int64, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockContributionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.ContributionRepository) error) error {
	if err := m.Called(ctx, fn).Error(0); err != nil {
		return err
	}
	return fn(ctx, m)
}

// MockDonationRepository is a mock implementation of DonationRepository.
type MockDonationRepository struct {
	mock.Mock
}

func (m *MockDonationRepository) Create(ctx context.Context, d *model.Donation) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDonationRepository) Update(ctx context.Context, d *model.Donation) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDonationRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDonationRepository) FindByID(ctx context.Context, id uint) (*model.Donation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Donation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationRepository) List(ctx context.Context, filter ledger.Filter, page repository.Pagination) ([]model.Donation, int64, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]model.Donation), args.Get(1).(int64), args.Error(2)
}

func (m *MockDonationRepository) Find(ctx context.Context, filter ledger.Filter) ([]model.Donation, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.Donation), args.Error(1)
}

func (m *MockDonationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.DonationRepository) error) error {
	if err := m.Called(ctx, fn).Error(0); err != nil {
		return err
	}
	return fn(ctx, m)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uint, email string, ttl time.Duration) error {
	return m.Called(ctx, tokenID, userID, email, ttl).Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uint, string, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(uint), args.String(1), args.Error(2)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return m.Called(ctx, tokenID).Error(0)
}

func (m *MockTokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	return m.Called(ctx, tokenID, ttl).Error(0)
}

func (m *MockTokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

// MockIdentityService records cache invalidations.
type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) Load(ctx context.Context, userID uint) (*access.Identity, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Identity), args.Error(1)
}

func (m *MockIdentityService) Invalidate(ctx context.Context, userID uint) {
	m.Called(ctx, userID)
}

// recordingPublisher keeps published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func identity(userID uint, roles ...string) *access.Identity {
	grants := make([]access.RoleGrant, 0, len(roles))
	for _, r := range roles {
		grants = append(grants, access.RoleGrant{Name: r, Permissions: access.DefaultRolePermissions[r]})
	}
	return access.NewIdentity(userID, "", grants)
}

// MockAnnouncementRepository is a mock implementation of AnnouncementRepository.
type MockAnnouncementRepository struct {
	mock.Mock
}

func (m *MockAnnouncementRepository) Create(ctx context.Context, a *model.Announcement) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAnnouncementRepository) Update(ctx context.Context, a *model.Announcement) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAnnouncementRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAnnouncementRepository) FindByID(ctx context.Context, id uint) (*model.Announcement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Announcement), args.Error(1)
}

func (m *MockAnnouncementRepository) List(ctx context.Context, filter repository.AnnouncementFilter, page repository.Pagination) ([]model.Announcement, int64, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]model.Announcement), args.Get(1).(int64), args.Error(2)
}

func (m *MockAnnouncementRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAnnouncementRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
