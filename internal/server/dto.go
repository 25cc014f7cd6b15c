package server

import "github.com/jmylchreest/hudtoast/internal/lifecycle"

// Response codes used in error bodies.
const (
	CodeBadRequest    = "bad_request"
	CodeNotFound      = "not_found"
	CodeInternalError = "internal_error"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ListResponse is the body of GET /notifications.
type ListResponse struct {
	Visible       bool             `json:"visible"`
	Notifications []lifecycle.Item `json:"notifications"`
}

// DeleteResponse is the body of DELETE /notifications/:id.
type DeleteResponse struct {
	ID        string `json:"id"`
	Immediate bool   `json:"immediate"`
}

// ClearResponse is the body of DELETE /notifications.
type ClearResponse struct {
	Cleared int `json:"cleared"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Notifications int    `json:"notifications"`
	Clients       int    `json:"clients"`
}
