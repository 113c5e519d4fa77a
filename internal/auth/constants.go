package auth

const (
	ContextKeyIdentity = "identity"

	jsonKeyError = "error"

	headerAuthorization = "Authorization"

	bearerScheme    = "bearer"
	authHeaderParts = 2
)

const (
	msgNotAuthorized           = "Not authorized to access this route"
	msgInternalServerError     = "Internal server error"
	msgUserNotAuthenticated    = "user not authenticated"
	msgInvalidIdentityCtx      = "invalid identity in context"
	msgUnexpectedSigningMethod = "unexpected signing method: %v"
	msgTokenParseFailed        = "failed to parse token: %w"
	msgInvalidTokenClaims      = "invalid token claims"
	msgMissingRoleClaim        = "token has no role_id claim"
	msgInvalidRoleIDClaim      = "role_id claim must be a string or number"
	msgGatePanic               = "authorization gate panic: %v"
)
