package models

import (
	"time"
)

// Execution is a recorded tester call
type Execution struct {
	ID        string      `json:"id"`
	DocID     string      `json:"docId"`
	SessionID string      `json:"sessionId,omitempty"`
	Section   string      `json:"section"`
	Endpoint  string      `json:"endpoint"` // Endpoint key, e.g. "GET /users/{id}"
	Timestamp time.Time   `json:"timestamp"`
	Curl      string      `json:"curl,omitempty"`
	Result    *TestResult `json:"result"`
}

// ExecutionFilter represents filters for querying executions
type ExecutionFilter struct {
	DocID      string    `json:"docId,omitempty"`
	SessionID  string    `json:"sessionId,omitempty"`
	Section    string    `json:"section,omitempty"`
	Method     string    `json:"method,omitempty"`
	Outcome    Outcome   `json:"outcome,omitempty"`
	StatusCode int       `json:"statusCode,omitempty"`
	StartTime  time.Time `json:"startTime,omitempty"`
	EndTime    time.Time `json:"endTime,omitempty"`
	Limit      int       `json:"limit,omitempty"`
}
