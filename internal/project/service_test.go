package project

import (
	"context"
	"testing"

	"github.com/opentrusty/companies/internal/audit"
	"github.com/opentrusty/companies/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, p *Project) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Project), args.Error(1)
}

func (m *mockRepo) ListByCompany(ctx context.Context, companyID int64) ([]*Project, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]*Project), args.Error(1)
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

// TestPurpose: Validates project creation and its audit record.
// Scope: Unit Test
// Expected: The trimmed project is stored and audited against its company.
// Test Case ID: PRJ-01
func TestProject_Service_CreateProject(t *testing.T) {
	repo := new(mockRepo)
	auditLogger := new(mockAudit)
	svc := NewService(repo, auditLogger)
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(p *Project) bool {
		return p.CompanyID == 2 && p.Name == "Website" && p.Description == "Relaunch"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*Project).ID = 21
	}).Return(nil)
	auditLogger.On("Log", ctx, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeProjectCreated && e.CompanyID == 2 && e.Metadata[audit.AttrProjectID] == int64(21)
	})).Return()

	p, err := svc.CreateProject(ctx, NewProject{CompanyID: 2, Name: " Website ", Description: "Relaunch "})

	require.NoError(t, err)
	assert.Equal(t, int64(21), p.ID)
	repo.AssertExpectations(t)
	auditLogger.AssertExpectations(t)
}

// TestPurpose: Validates project input validation.
// Scope: Unit Test
// Expected: A missing company or name is rejected before the store is called.
// Test Case ID: PRJ-02
func TestProject_Service_CreateProject_Invalid(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, new(mockAudit))

	_, err := svc.CreateProject(context.Background(), NewProject{Name: "Website"})
	assert.ErrorIs(t, err, validate.ErrInvalidInput)

	_, err = svc.CreateProject(context.Background(), NewProject{CompanyID: 2, Name: "  "})
	assert.ErrorIs(t, err, validate.ErrInvalidInput)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// TestPurpose: Validates project deletion.
// Scope: Unit Test
// Expected: A known project is deleted and audited; an unknown one returns ErrProjectNotFound.
// Test Case ID: PRJ-03
func TestProject_Service_DeleteProject(t *testing.T) {
	repo := new(mockRepo)
	auditLogger := new(mockAudit)
	svc := NewService(repo, auditLogger)
	ctx := context.Background()

	repo.On("GetByID", ctx, int64(21)).Return(&Project{ID: 21, CompanyID: 2}, nil)
	repo.On("GetByID", ctx, int64(22)).Return(nil, ErrProjectNotFound)
	repo.On("Delete", ctx, int64(21)).Return(nil)
	auditLogger.On("Log", ctx, mock.Anything).Return()

	require.NoError(t, svc.DeleteProject(ctx, 21))
	assert.ErrorIs(t, svc.DeleteProject(ctx, 22), ErrProjectNotFound)

	repo.AssertNumberOfCalls(t, "Delete", 1)
}
