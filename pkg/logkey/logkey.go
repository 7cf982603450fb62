package logkey

// keys shared by every slog call so log lines can be grouped by request
const (
	TraceID = "TRACE ID"
	ERROR   = "ERROR"
	UserID  = "UserID"
	OrderID = "OrderID"
)
