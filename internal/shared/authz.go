package shared

// Permissions granted to roles and checked by bridge operations.
const (
	PermStoresManage = "stores.manage"
	PermUsersManage  = "users.manage"

	PermCatalogView = "catalog.view"
	PermCatalogEdit = "catalog.edit"

	PermProcurementView = "procurement.view"
	PermProcurementEdit = "procurement.edit"

	PermSalesView   = "sales.view"
	PermSalesCreate = "sales.create"
	PermSalesDelete = "sales.delete"

	PermAccountingView = "accounting.view"
	PermAccountingEdit = "accounting.edit"

	PermReportsView = "reports.view"
)

// AllPermissions lists every permission a role may hold.
func AllPermissions() []string {
	return []string{
		PermStoresManage,
		PermUsersManage,
		PermCatalogView,
		PermCatalogEdit,
		PermProcurementView,
		PermProcurementEdit,
		PermSalesView,
		PermSalesCreate,
		PermSalesDelete,
		PermAccountingView,
		PermAccountingEdit,
		PermReportsView,
	}
}

// IsKnownPermission reports whether p is one of AllPermissions.
func IsKnownPermission(p string) bool {
	for _, known := range AllPermissions() {
		if known == p {
			return true
		}
	}
	return false
}
