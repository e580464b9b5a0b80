package service

import (
	"context"

	"churchadmin/internal/access"
	"churchadmin/internal/ledger"
	"churchadmin/internal/model"
	"churchadmin/internal/repository"
)

const recentItems = 5

// AdminDashboard is the administrator overview.
type AdminDashboard struct {
	TotalUsers         int64                  `json:"total_users"`
	ActiveUsers        int64                  `json:"active_users"`
	TotalEvents        int64                  `json:"total_events"`
	TotalMinistries    int64                  `json:"total_ministries"`
	TotalAnnouncements int64                  `json:"total_announcements"`
	TotalMessages      int64                  `json:"total_messages"`
	RoleDistribution   []repository.RoleCount `json:"role_distribution"`
}

// PastorDashboard is the pastoral overview.
type PastorDashboard struct {
	ActiveMembers       int64                `json:"active_members"`
	ActiveAnnouncements int64                `json:"active_announcements"`
	UpcomingEvents      int64                `json:"upcoming_events"`
	ActiveMinistries    int64                `json:"active_ministries"`
	NextEvents          []model.Event        `json:"next_events"`
	LatestAnnouncements []model.Announcement `json:"latest_announcements"`
}

// FinanceDashboard is the finance committee overview for the current month.
type FinanceDashboard struct {
	Summary             ledger.CombinedSummary `json:"summary"`
	Contributors        int64                  `json:"contributors"`
	RecentContributions []model.Contribution   `json:"recent_contributions"`
}

// MemberDashboard is a member's personal overview.
type MemberDashboard struct {
	Giving              ledger.UserHistory   `json:"giving"`
	UnreadMessages      int64                `json:"unread_messages"`
	UpcomingEvents      []model.Event        `json:"upcoming_events"`
	ActiveAnnouncements []model.Announcement `json:"active_announcements"`
}

// DashboardService assembles the per-role overviews.
type DashboardService interface {
	Admin(ctx context.Context) (*AdminDashboard, error)
	Pastor(ctx context.Context) (*PastorDashboard, error)
	Finance(ctx context.Context) (*FinanceDashboard, error)
	Member(ctx context.Context, actor *access.Identity) (*MemberDashboard, error)
}

type dashboardService struct {
	users         repository.UserRepository
	events        repository.EventRepository
	ministries    repository.MinistryRepository
	announcements repository.AnnouncementRepository
	messages      repository.MessageRepository
	contributions repository.ContributionRepository
	finance       FinanceService
	now           Clock
}

// DashboardDeps groups the repositories the dashboards read from.
type DashboardDeps struct {
	Users         repository.UserRepository
	Events        repository.EventRepository
	Ministries    repository.MinistryRepository
	Announcements repository.AnnouncementRepository
	Messages      repository.MessageRepository
	Contributions repository.ContributionRepository
	Finance       FinanceService
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(deps DashboardDeps, now Clock) DashboardService {
	return &dashboardService{
		users:         deps.Users,
		events:        deps.Events,
		ministries:    deps.Ministries,
		announcements: deps.Announcements,
		messages:      deps.Messages,
		contributions: deps.Contributions,
		finance:       deps.Finance,
		now:           now,
	}
}

func (s *dashboardService) Admin(ctx context.Context) (*AdminDashboard, error) {
	var (
		d   AdminDashboard
		err error
	)
	if d.TotalUsers, err = s.users.Count(ctx, false); err != nil {
		return nil, err
	}
	if d.ActiveUsers, err = s.users.Count(ctx, true); err != nil {
		return nil, err
	}
	if d.TotalEvents, err = s.events.Count(ctx); err != nil {
		return nil, err
	}
	if d.TotalMinistries, err = s.ministries.Count(ctx, false); err != nil {
		return nil, err
	}
	if d.TotalAnnouncements, err = s.announcements.Count(ctx); err != nil {
		return nil, err
	}
	if d.TotalMessages, err = s.messages.Count(ctx); err != nil {
		return nil, err
	}
	if d.RoleDistribution, err = s.users.RoleDistribution(ctx); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *dashboardService) Pastor(ctx context.Context) (*PastorDashboard, error) {
	now := s.now()
	var (
		d   PastorDashboard
		err error
	)
	if d.ActiveMembers, err = s.users.Count(ctx, true); err != nil {
		return nil, err
	}
	if d.ActiveAnnouncements, err = s.announcements.CountActive(ctx, now); err != nil {
		return nil, err
	}
	if d.UpcomingEvents, err = s.events.CountUpcoming(ctx, now, false); err != nil {
		return nil, err
	}
	if d.ActiveMinistries, err = s.ministries.Count(ctx, true); err != nil {
		return nil, err
	}
	first := repository.Pagination{Page: 1, PerPage: recentItems}
	if d.NextEvents, _, err = s.events.List(ctx, repository.EventFilter{Upcoming: true, Now: now}, first); err != nil {
		return nil, err
	}
	if d.LatestAnnouncements, _, err = s.announcements.List(ctx, repository.AnnouncementFilter{ActiveOnly: true, Now: now}, first); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *dashboardService) Finance(ctx context.Context) (*FinanceDashboard, error) {
	month := ledger.MonthOf(s.now())
	summary, err := s.finance.Summary(ctx, month)
	if err != nil {
		return nil, err
	}
	contributors, err := s.contributions.CountContributors(ctx, month)
	if err != nil {
		return nil, err
	}
	recent, _, err := s.finance.ListContributions(ctx, ledger.Filter{}, repository.Pagination{Page: 1, PerPage: recentItems})
	if err != nil {
		return nil, err
	}
	return &FinanceDashboard{Summary: summary, Contributors: contributors, RecentContributions: recent}, nil
}

func (s *dashboardService) Member(ctx context.Context, actor *access.Identity) (*MemberDashboard, error) {
	if err := access.Check(actor, access.Authenticated()); err != nil {
		return nil, err
	}
	now := s.now()
	year := ledger.YearOf(now)
	giving, err := s.finance.History(ctx, actor, actor.UserID, &year)
	if err != nil {
		return nil, err
	}
	unread, err := s.messages.CountUnread(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	published := true
	first := repository.Pagination{Page: 1, PerPage: recentItems}
	events, _, err := s.events.List(ctx, repository.EventFilter{Upcoming: true, Published: &published, Now: now}, first)
	if err != nil {
		return nil, err
	}
	announcements, _, err := s.announcements.List(ctx, repository.AnnouncementFilter{ActiveOnly: true, Now: now}, first)
	if err != nil {
		return nil, err
	}
	return &MemberDashboard{
		Giving:              giving,
		UnreadMessages:      unread,
		UpcomingEvents:      events,
		ActiveAnnouncements: announcements,
	}, nil
}
