package types

// APIError is the legacy dialect's error body.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps APIError in the legacy `{"error": {...}}` shape.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Message is a field-level diagnostic in the current (UCP) dialect. For
// type "error" the severity is required: "error" aborts the operation,
// "recoverable" lets the agent retry with different input.
type Message struct {
	Type     string `json:"type"`
	Code     string `json:"code,omitempty"`
	Path     string `json:"path,omitempty"`
	Severity string `json:"severity,omitempty"`
	Content  string `json:"content,omitempty"`
}

// MessagesEnvelope is the UCP dialect's error body; several field-level
// errors can be reported in one response.
type MessagesEnvelope struct {
	Messages []Message `json:"messages"`
}

// NewErrorMessage builds a blocking error message.
func NewErrorMessage(code, path, content string) Message {
	return Message{Type: "error", Code: code, Path: path, Severity: "error", Content: content}
}

// NewRecoverableMessage builds an error the agent can fix with different input.
func NewRecoverableMessage(code, path, content string) Message {
	return Message{Type: "error", Code: code, Path: path, Severity: "recoverable", Content: content}
}

// NewWarning builds a non-blocking diagnostic.
func NewWarning(code, path, content string) Message {
	return Message{Type: "warning", Code: code, Path: path, Content: content}
}
