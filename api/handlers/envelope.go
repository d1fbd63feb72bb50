package handlers

// Envelope is the uniform response shape of every console endpoint.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(data interface{}) Envelope {
	return Envelope{Status: "ok", Data: data}
}

func Err(message string) Envelope {
	return Envelope{Status: "error", Message: message}
}
