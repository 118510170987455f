package bridge

// InvokeRequest names a server function and its positional parameters.
type InvokeRequest struct {
	Function string `json:"function"`
	Params   []any  `json:"params"`
}

// InvokeReply mirrors the automation server's return convention: an
// error flag plus message, and the untyped payload on success.
type InvokeReply struct {
	ErrorFlag    string `json:"error_flag"`
	ErrorMessage string `json:"error_message"`
	Payload      []any  `json:"payload"`
}
