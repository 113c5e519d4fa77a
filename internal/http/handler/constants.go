package handler

const (
	jsonKeyError   = "error"
	jsonKeyMessage = "message"

	paramID   = "id"
	paramRole = "role"

	auditResourceRole       = "role"
	auditResourcePermission = "permission"
	auditResourceRoleLink   = "role-link"
)

const (
	msgContentTypeJSONRequired = "Content-Type must be application/json"
	msgInvalidRequestBody      = "invalid request body"
	msgInvalidRoleID           = "invalid role id"
	msgRoleNotFound            = "role not found"
	msgRoleAlreadyExists       = "role already exists"
	msgNothingToUpdate         = "at least one of name or description is required"
	msgCreateRoleFail          = "failed to create role"
	msgListRolesFail           = "failed to list roles"
	msgGetRoleFail             = "failed to load role"
	msgUpdateRoleFail          = "failed to update role"
	msgDeleteRoleFail          = "failed to delete role"
	msgGrantFail               = "failed to grant permission"
	msgRevokeFail              = "failed to revoke permission"
	msgListPermissionsFail     = "failed to list permissions"
	msgReloadFail              = "failed to reload policies"
	msgPoliciesReloaded        = "policies reloaded"
	msgPermissionGranted       = "permission granted"
	msgPermissionExists        = "permission already granted"
	msgPermissionRevoked       = "permission revoked"
	msgPermissionMissing       = "permission was not granted"
	msgLinkAdded               = "role link added"
	msgLinkExists              = "role link already exists"
	msgLinkRemoved             = "role link removed"
	msgLinkMissing             = "role link does not exist"
	msgLinkSelf                = "a role cannot inherit from itself"
	msgLinkCycle               = "role link would create an inheritance cycle"
	msgAddLinkFail             = "failed to add role link"
	msgRemoveLinkFail          = "failed to remove role link"
	msgListLinksFail           = "failed to list role links"
	msgListAuditFail           = "failed to list audit events"
	msgInvalidAuditStatus      = "status must be one of success, failure, denied"
	msgInvalidAuditTime        = "since and until must be RFC 3339 timestamps"
	msgInvalidAuditLimit       = "limit must be between 1 and 500"
	msgInvalidAuditOffset      = "offset must be a non-negative integer"
)
