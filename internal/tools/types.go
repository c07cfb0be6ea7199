package tools

// ToolError is a structured error format for model consumption. It lets
// tools report specific failure types the model can understand and
// correct, instead of an opaque Go error string.
type ToolError struct {
	ErrorType string `json:"error_type"` // e.g. "UnknownDestination", "InvalidArguments"
	Message   string `json:"message"`
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e == nil {
		return "<nil ToolError>"
	}
	switch {
	case e.ErrorType == "" && e.Message == "":
		return "<empty ToolError>"
	case e.ErrorType == "":
		return e.Message
	case e.Message == "":
		return e.ErrorType
	}
	return e.ErrorType + ": " + e.Message
}
