package rbac

import (
	"testing"

	"hrms/internal/domain"
	"hrms/internal/rbac/infra"

	"github.com/stretchr/testify/assert"
)

type mockRepo struct{}

func (m *mockRepo) GetEmployeeRoles(companyID string) ([]EmployeeRoleRow, error) {
	return []EmployeeRoleRow{
		{
			EmployeeID: "emp-1",
			RoleID:     "role-manager",
		},
	}, nil
}

func (m *mockRepo) GetRolePermissions(companyID string) ([]RolePermissionRow, error) {
	return []RolePermissionRow{
		{
			RoleID:   "role-manager",
			Resource: "leave",
			Action:   "approve",
		},
	}, nil
}

func TestRBACService_Enforce(t *testing.T) {
	repo := &mockRepo{}
	enforcer, err := infra.NewEnforcer()
	assert.NoError(t, err)

	service := NewService(repo, enforcer)

	err = service.LoadCompanyPolicy("company-1")
	assert.NoError(t, err)

	allowed, err := service.Enforce(domain.EnforceRequest{
		EmployeeID: "emp-1",
		CompanyID:  "company-1",
		Resource:   "leave",
		Action:     "approve",
	})

	assert.NoError(t, err)
	assert.True(t, allowed)

	denied, err := service.Enforce(domain.EnforceRequest{
		EmployeeID: "emp-1",
		CompanyID:  "company-1",
		Resource:   "balance",
		Action:     "write",
	})

	assert.NoError(t, err)
	assert.False(t, denied)
}
