package ctxkeys

type contextKey string

const (
	TraceIDKey   contextKey = "trace_id"
	RequestIDKey contextKey = "request_id"

	// UserIDKey и AuthorityKey заполняются edge-фильтром после
	// успешной проверки access-токена.
	UserIDKey    contextKey = "user_id"
	AuthorityKey contextKey = "authority"
)
