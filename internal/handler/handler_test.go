package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"churchadmin/internal/access"
	"churchadmin/internal/ledger"
	"churchadmin/internal/logger"
	"churchadmin/internal/middleware"
	"churchadmin/internal/model"
	"churchadmin/internal/repository"
	"churchadmin/internal/service"
)

type structValidator struct{ v *validator.Validate }

func (s structValidator) Validate(i interface{}) error { return s.v.Struct(i) }

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = structValidator{v: validator.New()}
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(logger.Discard())
	return e
}

// asUser puts an identity on the request context the way Authenticate does.
func asUser(id *access.Identity) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.SetRequest(c.Request().WithContext(access.WithIdentity(c.Request().Context(), id)))
			return next(c)
		}
	}
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func member(userID uint) *access.Identity {
	return access.NewIdentity(userID, "", []access.RoleGrant{
		{Name: access.RoleMember, Permissions: access.DefaultRolePermissions[access.RoleMember]},
	})
}

type MockEventService struct {
	mock.Mock
	service.EventService
}

func (m *MockEventService) List(ctx context.Context, actor *access.Identity, filter repository.EventFilter, page repository.Pagination) ([]model.Event, int64, error) {
	args := m.Called(ctx, actor, filter, page)
	return args.Get(0).([]model.Event), args.Get(1).(int64), args.Error(2)
}

func (m *MockEventService) Register(ctx context.Context, actor *access.Identity, id uint, in service.RegistrationInput) (*model.EventAttendee, error) {
	args := m.Called(ctx, actor, id, in)
	if a := args.Get(0); a != nil {
		return a.(*model.EventAttendee), args.Error(1)
	}
	return nil, args.Error(1)
}

type stubFinance struct {
	service.FinanceService
	gotRange ledger.DateRange
}

func (s *stubFinance) Summary(_ context.Context, r ledger.DateRange) (ledger.CombinedSummary, error) {
	s.gotRange = r
	return ledger.CombinedSummary{}, nil
}

func (s *stubFinance) History(_ context.Context, _ *access.Identity, _ uint, r *ledger.DateRange) (ledger.UserHistory, error) {
	if r != nil {
		s.gotRange = *r
	}
	return ledger.UserHistory{}, nil
}

func TestPager_Page(t *testing.T) {
	p := Pager{DefaultSize: 15, MaxSize: 100}
	tests := []struct {
		query    string
		wantPage int
		wantSize int
	}{
		{"", 1, 15},
		{"page=3&per_page=20", 3, 20},
		{"page=0&per_page=-1", 1, 15},
		{"page=abc&per_page=500", 1, 100},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil), httptest.NewRecorder())
			got := p.Page(c)
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantSize, got.PerPage)
		})
	}
}

func TestEventHandler_ListEnvelope(t *testing.T) {
	svc := new(MockEventService)
	who := member(4)
	svc.On("List", mock.Anything, who, mock.MatchedBy(func(f repository.EventFilter) bool {
		return f.Upcoming && f.Type == "service" && f.From != nil
	}), repository.Pagination{Page: 2, PerPage: 10}).
		Return([]model.Event{{ID: 11}, {ID: 12}}, int64(21), nil)

	e := newEcho()
	h := NewEventHandler(svc, Pager{DefaultSize: 15, MaxSize: 100})
	e.GET("/events", h.List, asUser(who))

	rec := do(e, http.MethodGet, "/events?type=service&upcoming=true&start_date=2024-03-01&page=2&per_page=10", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []model.Event `json:"data"`
		Meta Meta          `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, Meta{CurrentPage: 2, PerPage: 10, Total: 21, LastPage: 3}, body.Meta)
	svc.AssertExpectations(t)

	rec = do(e, http.MethodGet, "/events?start_date=tomorrow", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEventHandler_Register(t *testing.T) {
	who := member(4)
	tests := []struct {
		name       string
		path       string
		body       string
		setupMock  func(m *MockEventService)
		wantStatus int
	}{
		{
			name: "registered without a body",
			path: "/events/9/register",
			setupMock: func(m *MockEventService) {
				m.On("Register", mock.Anything, who, uint(9), service.RegistrationInput{}).
					Return(&model.EventAttendee{ID: 1, EventID: 9, UserID: 4, Status: model.AttendeeRegistered}, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "notes are passed through",
			path: "/events/9/register",
			body: `{"notes":"bringing two guests"}`,
			setupMock: func(m *MockEventService) {
				m.On("Register", mock.Anything, who, uint(9), service.RegistrationInput{Notes: "bringing two guests"}).
					Return(&model.EventAttendee{ID: 2}, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "full event",
			path: "/events/9/register",
			setupMock: func(m *MockEventService) {
				m.On("Register", mock.Anything, who, uint(9), service.RegistrationInput{}).Return(nil, service.ErrEventFull)
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "already registered",
			path: "/events/9/register",
			setupMock: func(m *MockEventService) {
				m.On("Register", mock.Anything, who, uint(9), service.RegistrationInput{}).Return(nil, service.ErrAlreadyRegistered)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "bad id",
			path:       "/events/nine/register",
			setupMock:  func(m *MockEventService) {},
			wantStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockEventService)
			tt.setupMock(svc)

			e := newEcho()
			h := NewEventHandler(svc, Pager{DefaultSize: 15})
			e.POST("/events/:id/register", h.Register, asUser(who))

			rec := do(e, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestFinanceHandler_SummaryWindow(t *testing.T) {
	svc := &stubFinance{}
	e := newEcho()
	h := NewFinanceHandler(svc, Pager{DefaultSize: 15})
	e.GET("/summary", h.Summary)

	rec := do(e, http.MethodGet, "/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.gotRange.IsZero())

	rec = do(e, http.MethodGet, "/summary?start_date=2024-03-01&end_date=2024-03-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	from, to := svc.gotRange.Bounds()
	assert.Equal(t, "2024-03-01", from)
	assert.Equal(t, "2024-03-31", to)

	rec = do(e, http.MethodGet, "/summary?start_date=2024-03-31&end_date=2024-03-01", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestFinanceHandler_HalfOpenWindowKeepsGivenBound(t *testing.T) {
	svc := &stubFinance{}
	e := newEcho()
	h := NewFinanceHandler(svc, Pager{DefaultSize: 15})
	e.GET("/summary", h.Summary)

	rec := do(e, http.MethodGet, "/summary?start_date=2024-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-01-01", svc.gotRange.From.Format(ledger.DateLayout))
	assert.True(t, svc.gotRange.To.IsZero())

	rec = do(e, http.MethodGet, "/summary?date_to=2024-02-29", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.gotRange.From.IsZero())
	assert.Equal(t, "2024-02-29", svc.gotRange.To.Format(ledger.DateLayout))
}

func TestUserHandler_HistoryPassesBounds(t *testing.T) {
	svc := &stubFinance{}
	e := newEcho()
	h := NewUserHandler(nil, svc, Pager{DefaultSize: 15})
	e.GET("/me/financial-history", h.MyFinancialHistory, asUser(member(4)))

	rec := do(e, http.MethodGet, "/me/financial-history?start_date=2023-06-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2023-06-01", svc.gotRange.From.Format(ledger.DateLayout))
	assert.True(t, svc.gotRange.To.IsZero())
}

func TestProfile_RequiresIdentity(t *testing.T) {
	e := newEcho()
	h := NewUserHandler(nil, nil, Pager{})
	e.GET("/profile", h.Profile)

	rec := do(e, http.MethodGet, "/profile", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
