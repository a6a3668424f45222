package stats

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prasenjit/go-apidocs/internal/models"
)

// Collector aggregates tester execution statistics
type Collector struct {
	mu             sync.RWMutex
	startTime      time.Time
	endpoints      map[string]*models.AtomicEndpointStat // docID + " " + endpoint key -> stats
	rejected       atomic.Int64
	recentFailures []models.FailureStat
	hourlyStats    map[string]*hourlyCounter // "YYYY-MM-DD-HH" -> counter
	maxFailures    int
	maxHourlySlots int
	now            func() time.Time
}

type hourlyCounter struct {
	Hour       string
	Executions int64
	Failures   int64
}

// NewCollector creates a new statistics collector
func NewCollector() *Collector {
	return &Collector{
		startTime:      time.Now(),
		endpoints:      make(map[string]*models.AtomicEndpointStat),
		recentFailures: make([]models.FailureStat, 0),
		hourlyStats:    make(map[string]*hourlyCounter),
		maxFailures:    100,
		maxHourlySlots: 168, // 7 days
		now:            time.Now,
	}
}

func statKey(docID, key string) string {
	return docID + " " + key
}

// RecordExecution records one tester result against the documented endpoint
// it was sent for. Invalid and canceled calls only count as rejected.
func (c *Collector) RecordExecution(docID string, ep *models.Endpoint, result *models.TestResult) {
	if result == nil {
		return
	}
	if result.Outcome == models.OutcomeInvalid || result.Outcome == models.OutcomeCanceled {
		c.rejected.Add(1)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	key := statKey(docID, ep.Key())
	st, ok := c.endpoints[key]
	if !ok {
		st = &models.AtomicEndpointStat{
			DocID:  docID,
			Key:    ep.Key(),
			Method: string(ep.Method),
			Path:   ep.Path,
		}
		st.MinTimeNs.Store(result.Elapsed.Nanoseconds())
		c.endpoints[key] = st
	}

	st.TotalExecutions.Add(1)
	st.TotalTimeNs.Add(result.Elapsed.Nanoseconds())
	st.LastExecutionTime.Store(now)

	elapsedNs := result.Elapsed.Nanoseconds()
	for {
		currentMin := st.MinTimeNs.Load()
		if elapsedNs >= currentMin || st.MinTimeNs.CompareAndSwap(currentMin, elapsedNs) {
			break
		}
	}
	for {
		currentMax := st.MaxTimeNs.Load()
		if elapsedNs <= currentMax || st.MaxTimeNs.CompareAndSwap(currentMax, elapsedNs) {
			break
		}
	}

	failed := true
	switch {
	case result.Outcome == models.OutcomeTransportError:
		st.TransportErrors.Add(1)
	case result.Outcome == models.OutcomeTimedOut:
		st.TimedOut.Add(1)
	case result.StatusCode >= 400:
		st.HTTPErrors.Add(1)
	default:
		failed = false
	}

	hourKey := now.Format("2006-01-02-15")
	hourly, ok := c.hourlyStats[hourKey]
	if !ok {
		hourly = &hourlyCounter{Hour: hourKey}
		c.hourlyStats[hourKey] = hourly
		c.cleanupOldHourlyStats()
	}
	hourly.Executions++

	if failed {
		hourly.Failures++
		c.recentFailures = append(c.recentFailures, models.FailureStat{
			Timestamp:  now,
			DocID:      docID,
			Method:     string(result.Method),
			Path:       ep.Path,
			Outcome:    result.Outcome,
			StatusCode: result.StatusCode,
			Error:      result.Error,
		})
		if len(c.recentFailures) > c.maxFailures {
			c.recentFailures = c.recentFailures[1:]
		}
	}
}

// cleanupOldHourlyStats removes hourly stats older than maxHourlySlots
func (c *Collector) cleanupOldHourlyStats() {
	if len(c.hourlyStats) <= c.maxHourlySlots {
		return
	}

	keys := make([]string, 0, len(c.hourlyStats))
	for k := range c.hourlyStats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	toRemove := len(keys) - c.maxHourlySlots
	for i := 0; i < toRemove; i++ {
		delete(c.hourlyStats, keys[i])
	}
}

// GetGlobalStats returns statistics across all documentation sets
func (c *Collector) GetGlobalStats(docCount, endpointCount int) *models.GlobalStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	global := &models.GlobalStats{
		Rejected:      c.rejected.Load(),
		DocCount:      docCount,
		EndpointCount: endpointCount,
		StartTime:     c.startTime,
	}

	var totalTimeNs int64
	endpointStats := make([]models.EndpointStat, 0, len(c.endpoints))
	for _, ep := range c.endpoints {
		stat := ep.ToEndpointStat()
		endpointStats = append(endpointStats, stat)
		global.TotalExecutions += stat.TotalExecutions
		global.HTTPErrors += stat.HTTPErrors
		global.TransportErrors += stat.TransportErrors
		global.TimedOut += stat.TimedOut
		totalTimeNs += ep.TotalTimeNs.Load()
	}

	sort.Slice(endpointStats, func(i, j int) bool {
		if endpointStats[i].TotalExecutions != endpointStats[j].TotalExecutions {
			return endpointStats[i].TotalExecutions > endpointStats[j].TotalExecutions
		}
		return endpointStats[i].Key < endpointStats[j].Key
	})
	if len(endpointStats) > 10 {
		endpointStats = endpointStats[:10]
	}
	global.TopEndpoints = endpointStats

	if global.TotalExecutions > 0 {
		global.AvgElapsedMs = float64(totalTimeNs) / float64(global.TotalExecutions) / 1e6
	}

	uptime := c.now().Sub(c.startTime)
	if minutes := uptime.Minutes(); minutes > 0 {
		global.ExecutionsPerMin = float64(global.TotalExecutions) / minutes
	}
	global.Uptime = formatDuration(uptime)

	global.RecentFailures = append([]models.FailureStat(nil), c.recentFailures...)
	global.ExecutionsByHour = c.buildHourlyStats()

	return global
}

// GetDocStats returns per-endpoint statistics of one documentation set
func (c *Collector) GetDocStats(docID string) []models.EndpointStat {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]models.EndpointStat, 0)
	for _, ep := range c.endpoints {
		if ep.DocID == docID {
			result = append(result, ep.ToEndpointStat())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// GetEndpointStats returns statistics for one endpoint, or nil if it was
// never executed
func (c *Collector) GetEndpointStats(docID, key string) *models.EndpointStat {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if ep, ok := c.endpoints[statKey(docID, key)]; ok {
		stat := ep.ToEndpointStat()
		return &stat
	}

	return nil
}

// buildHourlyStats builds the last 24 hours, oldest first
func (c *Collector) buildHourlyStats() []models.HourlyStat {
	now := c.now()
	stats := make([]models.HourlyStat, 0, 24)

	for i := 23; i >= 0; i-- {
		hour := now.Add(-time.Duration(i) * time.Hour)
		stat := models.HourlyStat{
			Hour: hour.Format("15:00"),
		}

		if hourly, ok := c.hourlyStats[hour.Format("2006-01-02-15")]; ok {
			stat.Executions = hourly.Executions
			stat.Failures = hourly.Failures
		}

		stats = append(stats, stat)
	}

	return stats
}

// Reset resets all statistics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = c.now()
	c.endpoints = make(map[string]*models.AtomicEndpointStat)
	c.rejected.Store(0)
	c.recentFailures = make([]models.FailureStat, 0)
	c.hourlyStats = make(map[string]*hourlyCounter)
}

// formatDuration formats a duration in a human-readable format
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		return d.Round(time.Minute).String()
	case d >= time.Minute:
		return d.Round(time.Second).String()
	}
	return d.Round(time.Millisecond).String()
}
