package models

// Permission is a single capability a role can grant.
type Permission string

const (
	PermManageProducts  Permission = "products:manage"
	PermViewProducts    Permission = "products:view"
	PermCreateOrders    Permission = "orders:create"
	PermManageOrders    Permission = "orders:manage"
	PermApproveOrders   Permission = "orders:approve"
	PermManageShipments Permission = "shipments:manage"
	PermProcessReturns  Permission = "returns:process"
	PermManageUsers     Permission = "users:manage"
)

// RolePermissions is the single authoritative capability table. Every
// authorization decision goes through it.
var RolePermissions = map[UserType][]Permission{
	UserTypeAdmin: {
		PermManageProducts, PermViewProducts,
		PermCreateOrders, PermManageOrders, PermApproveOrders,
		PermManageShipments, PermProcessReturns, PermManageUsers,
	},
	UserTypeSales: {
		PermViewProducts, PermCreateOrders, PermManageOrders,
	},
	UserTypeLogistics: {
		PermViewProducts, PermManageShipments,
	},
	UserTypeCustomer: {},
}

// HasPermission reports whether the role grants the capability.
func HasPermission(role UserType, perm Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
