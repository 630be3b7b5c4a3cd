package auth

// Known OAuth scopes used by the service.
const (
	ScopeRecordsWrite = "records:write"
	ScopeRecordsRead  = "records:read"
	ScopeReportsAdmin = "reports:admin"
)
