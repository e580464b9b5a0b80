package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"churchadmin/internal/access"
	apperrors "churchadmin/internal/errors"
	"churchadmin/internal/model"
)

func TestIdentityService_Load(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(users *MockUserRepository)
		wantErr   error
		check     func(t *testing.T, id *access.Identity)
	}{
		{
			name: "flattens role permissions",
			setupMock: func(users *MockUserRepository) {
				users.On("FindWithGraph", mock.Anything, uint(4)).Return(&model.User{
					ID: 4, Email: "pastor@example.com", IsActive: true,
					Roles: []model.Role{
						{Name: access.RolePastor, Permissions: []model.Permission{{Name: access.PermCreateEvents}}},
						{Name: access.RoleMember, Permissions: []model.Permission{{Name: access.PermViewEvents}}},
					},
				}, nil)
			},
			check: func(t *testing.T, id *access.Identity) {
				assert.Equal(t, uint(4), id.UserID)
				assert.True(t, id.HasRole(access.RolePastor))
				assert.True(t, id.HasPermission(access.PermCreateEvents))
				assert.True(t, id.HasPermission(access.PermViewEvents))
				assert.False(t, id.HasPermission(access.PermEditDonations))
			},
		},
		{
			name: "inactive account",
			setupMock: func(users *MockUserRepository) {
				users.On("FindWithGraph", mock.Anything, uint(4)).Return(&model.User{ID: 4, IsActive: false}, nil)
			},
			wantErr: apperrors.ErrUnauthenticated,
		},
		{
			name: "deleted account",
			setupMock: func(users *MockUserRepository) {
				users.On("FindWithGraph", mock.Anything, uint(4)).Return(nil, gorm.ErrRecordNotFound)
			},
			wantErr: apperrors.ErrUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			tt.setupMock(users)
			// a nil cache client reads as a permanent miss
			svc := NewIdentityService(users, nil, 0)

			id, err := svc.Load(context.Background(), 4)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, id)
				return
			}
			require.NoError(t, err)
			tt.check(t, id)
		})
	}
}

func TestIdentityService_LoadPropagatesStoreErrors(t *testing.T) {
	users := new(MockUserRepository)
	users.On("FindWithGraph", mock.Anything, uint(1)).Return(nil, errors.New("connection refused"))

	_, err := NewIdentityService(users, nil, 0).Load(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrUnauthenticated))
}
