package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission(UserTypeAdmin, PermManageUsers))
	assert.True(t, HasPermission(UserTypeSales, PermCreateOrders))
	assert.True(t, HasPermission(UserTypeLogistics, PermManageShipments))

	assert.False(t, HasPermission(UserTypeSales, PermApproveOrders))
	assert.False(t, HasPermission(UserTypeLogistics, PermCreateOrders))
	assert.False(t, HasPermission(UserTypeCustomer, PermViewProducts))
	assert.False(t, HasPermission(UserType("unknown"), PermViewProducts))
}

func TestEveryRoleHasAnEntry(t *testing.T) {
	for _, role := range []UserType{UserTypeAdmin, UserTypeSales, UserTypeLogistics, UserTypeCustomer} {
		_, ok := RolePermissions[role]
		assert.True(t, ok, "role %s missing from the permission table", role)
	}
}
