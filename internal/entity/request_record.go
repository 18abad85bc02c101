package entity

import "time"

type RequestStatus string

const (
	RequestStatusRunning   RequestStatus = "running"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusFailed    RequestStatus = "failed"
)

type RecordAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Failed   bool   `json:"failed,omitempty"`
}

// RequestRecord is what is kept about one question asked over a document.
type RequestRecord struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	FileLocation  string         `json:"file_location"`
	Query         string         `json:"query"`
	Status        RequestStatus  `json:"status"`
	SubQuestions  []string       `json:"sub_questions,omitempty"`
	Instructions  []string       `json:"special_instructions,omitempty"`
	Answers       []RecordAnswer `json:"answers,omitempty"`
	SynthesisKind string         `json:"synthesis_kind,omitempty"`
	Result        string         `json:"result,omitempty"`
	Error         string         `json:"error,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
