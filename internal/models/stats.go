package models

import (
	"sync/atomic"
	"time"
)

// GlobalStats represents tester statistics across all documentation sets
type GlobalStats struct {
	TotalExecutions  int64          `json:"totalExecutions"`
	HTTPErrors       int64          `json:"httpErrors"` // Completed with status >= 400
	TransportErrors  int64          `json:"transportErrors"`
	TimedOut         int64          `json:"timedOut"`
	Rejected         int64          `json:"rejected"` // Invalid or canceled, never answered
	DocCount         int            `json:"docCount"`
	EndpointCount    int            `json:"endpointCount"`
	AvgElapsedMs     float64        `json:"avgElapsedMs"`
	ExecutionsPerMin float64        `json:"executionsPerMinute"`
	StartTime        time.Time      `json:"startTime"`
	Uptime           string         `json:"uptime"`
	TopEndpoints     []EndpointStat `json:"topEndpoints"`
	RecentFailures   []FailureStat  `json:"recentFailures"`
	ExecutionsByHour []HourlyStat   `json:"executionsByHour"`
}

// EndpointStat represents statistics for one documented endpoint
type EndpointStat struct {
	DocID             string  `json:"docId"`
	Key               string  `json:"key"`
	Method            string  `json:"method"`
	Path              string  `json:"path"`
	TotalExecutions   int64   `json:"totalExecutions"`
	HTTPErrors        int64   `json:"httpErrors"`
	TransportErrors   int64   `json:"transportErrors"`
	TimedOut          int64   `json:"timedOut"`
	AvgElapsedMs      float64 `json:"avgElapsedMs"`
	MinElapsedMs      float64 `json:"minElapsedMs"`
	MaxElapsedMs      float64 `json:"maxElapsedMs"`
	LastExecutionTime string  `json:"lastExecutionTime,omitempty"`
}

// FailureStat represents one failed or error-status execution
type FailureStat struct {
	Timestamp  time.Time `json:"timestamp"`
	DocID      string    `json:"docId"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Outcome    Outcome   `json:"outcome"`
	StatusCode int       `json:"statusCode,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// HourlyStat represents hourly execution statistics
type HourlyStat struct {
	Hour       string `json:"hour"`
	Executions int64  `json:"executions"`
	Failures   int64  `json:"failures"`
}

// AtomicEndpointStat is a thread-safe version of endpoint statistics
type AtomicEndpointStat struct {
	DocID             string
	Key               string
	Method            string
	Path              string
	TotalExecutions   atomic.Int64
	HTTPErrors        atomic.Int64
	TransportErrors   atomic.Int64
	TimedOut          atomic.Int64
	TotalTimeNs       atomic.Int64
	MinTimeNs         atomic.Int64
	MaxTimeNs         atomic.Int64
	LastExecutionTime atomic.Value // stores time.Time
}

// ToEndpointStat converts to a regular EndpointStat
func (a *AtomicEndpointStat) ToEndpointStat() EndpointStat {
	total := a.TotalExecutions.Load()
	totalTimeNs := a.TotalTimeNs.Load()
	var avgMs float64
	if total > 0 {
		avgMs = float64(totalTimeNs) / float64(total) / 1e6
	}

	var last string
	if t, ok := a.LastExecutionTime.Load().(time.Time); ok && !t.IsZero() {
		last = t.Format(time.RFC3339)
	}

	return EndpointStat{
		DocID:             a.DocID,
		Key:               a.Key,
		Method:            a.Method,
		Path:              a.Path,
		TotalExecutions:   total,
		HTTPErrors:        a.HTTPErrors.Load(),
		TransportErrors:   a.TransportErrors.Load(),
		TimedOut:          a.TimedOut.Load(),
		AvgElapsedMs:      avgMs,
		MinElapsedMs:      float64(a.MinTimeNs.Load()) / 1e6,
		MaxElapsedMs:      float64(a.MaxTimeNs.Load()) / 1e6,
		LastExecutionTime: last,
	}
}
