package dto

import "time"

type DocQARequest struct {
	FileLocation string `json:"file_location" validate:"required"`
	UserID       string `json:"user_id"`
	UserQuery    string `json:"user_query" validate:"required"`
}

type DocQAResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
}

type UploadFileResponse struct {
	Message  string `json:"message"`
	FilePath string `json:"file_path"`
}

type PingResponse struct {
	ResponseCode int    `json:"responseCode"`
	ResponseDesc string `json:"responseDesc"`
}

// DocumentUploadedMessage is the payload of the upload event.
type DocumentUploadedMessage struct {
	FilePath   string    `json:"file_path"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ProgressMessage is one run progress update as sent to websocket clients.
type ProgressMessage struct {
	RequestID string `json:"request_id"`
	Stage     string `json:"stage"`
	Section   string `json:"section,omitempty"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}
