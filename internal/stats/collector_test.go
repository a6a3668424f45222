package stats

import (
	"testing"
	"time"

	"github.com/prasenjit/go-apidocs/internal/models"
)

var (
	listUsers  = &models.Endpoint{Path: "/users", Method: models.MethodGet}
	createUser = &models.Endpoint{Path: "/users", Method: models.MethodPost}
	listItems  = &models.Endpoint{Path: "/items", Method: models.MethodGet}
)

func result(outcome models.Outcome, status int, elapsed time.Duration) *models.TestResult {
	r := &models.TestResult{Outcome: outcome, Method: models.MethodGet, StatusCode: status}
	r.SetElapsed(elapsed)
	return r
}

func success(elapsed time.Duration) *models.TestResult {
	return result(models.OutcomeCompleted, 200, elapsed)
}

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	if c.endpoints == nil {
		t.Fatal("Endpoints map not initialized")
	}
	if c.recentFailures == nil {
		t.Fatal("Recent failures slice not initialized")
	}
	if c.maxFailures != 100 {
		t.Errorf("Expected maxFailures 100, got %d", c.maxFailures)
	}
	if c.maxHourlySlots != 168 {
		t.Errorf("Expected maxHourlySlots 168, got %d", c.maxHourlySlots)
	}
}

func TestRecordExecution_Outcomes(t *testing.T) {
	c := NewCollector()

	c.RecordExecution("doc-1", listUsers, success(100*time.Millisecond))
	c.RecordExecution("doc-1", listUsers, result(models.OutcomeCompleted, 404, 10*time.Millisecond))
	c.RecordExecution("doc-1", listUsers, result(models.OutcomeTransportError, 0, time.Millisecond))
	c.RecordExecution("doc-1", listUsers, result(models.OutcomeTimedOut, 0, time.Second))
	c.RecordExecution("doc-1", listUsers, result(models.OutcomeInvalid, 0, 0))
	c.RecordExecution("doc-1", listUsers, result(models.OutcomeCanceled, 0, 0))
	c.RecordExecution("doc-1", listUsers, nil)

	stats := c.GetGlobalStats(1, 1)
	if stats.TotalExecutions != 4 {
		t.Errorf("Expected 4 executions, got %d", stats.TotalExecutions)
	}
	if stats.HTTPErrors != 1 {
		t.Errorf("Expected 1 HTTP error, got %d", stats.HTTPErrors)
	}
	if stats.TransportErrors != 1 {
		t.Errorf("Expected 1 transport error, got %d", stats.TransportErrors)
	}
	if stats.TimedOut != 1 {
		t.Errorf("Expected 1 timeout, got %d", stats.TimedOut)
	}
	if stats.Rejected != 2 {
		t.Errorf("Expected 2 rejected, got %d", stats.Rejected)
	}
	if len(stats.RecentFailures) != 3 {
		t.Fatalf("Expected 3 recent failures, got %d", len(stats.RecentFailures))
	}
	if stats.RecentFailures[0].StatusCode != 404 {
		t.Errorf("Expected first failure to be the 404, got %+v", stats.RecentFailures[0])
	}
}

func TestRecordExecution_MinMaxTime(t *testing.T) {
	c := NewCollector()

	c.RecordExecution("doc-1", listUsers, success(100*time.Millisecond))
	c.RecordExecution("doc-1", listUsers, success(50*time.Millisecond))
	c.RecordExecution("doc-1", listUsers, success(200*time.Millisecond))

	stat := c.GetEndpointStats("doc-1", "GET /users")
	if stat == nil {
		t.Fatal("Expected endpoint stats")
	}
	if stat.MinElapsedMs != 50.0 {
		t.Errorf("Expected min 50ms, got %v", stat.MinElapsedMs)
	}
	if stat.MaxElapsedMs != 200.0 {
		t.Errorf("Expected max 200ms, got %v", stat.MaxElapsedMs)
	}
	if stat.Method != "GET" || stat.Path != "/users" {
		t.Errorf("Unexpected endpoint identity %+v", stat)
	}
	if stat.LastExecutionTime == "" {
		t.Error("Expected last execution time")
	}

	if c.GetEndpointStats("doc-2", "GET /users") != nil {
		t.Error("Expected nil for an endpoint of another doc")
	}
}

func TestRecordExecution_FailureLimit(t *testing.T) {
	c := NewCollector()
	c.maxFailures = 5

	for i := 0; i < 10; i++ {
		c.RecordExecution("doc-1", listUsers, result(models.OutcomeCompleted, 500, time.Millisecond))
	}

	stats := c.GetGlobalStats(1, 1)
	if len(stats.RecentFailures) != 5 {
		t.Errorf("Expected 5 failures (max), got %d", len(stats.RecentFailures))
	}
}

func TestGetGlobalStats_TopEndpoints(t *testing.T) {
	c := NewCollector()

	for i := 0; i < 15; i++ {
		ep := &models.Endpoint{Path: "/" + string(rune('a'+i)), Method: models.MethodGet}
		for j := 0; j <= i; j++ {
			c.RecordExecution("doc-1", ep, success(time.Millisecond))
		}
	}

	stats := c.GetGlobalStats(1, 15)
	if len(stats.TopEndpoints) != 10 {
		t.Fatalf("Expected 10 top endpoints, got %d", len(stats.TopEndpoints))
	}
	if stats.TopEndpoints[0].Key != "GET /o" {
		t.Errorf("Expected busiest endpoint first, got %s", stats.TopEndpoints[0].Key)
	}
	for i := 1; i < len(stats.TopEndpoints); i++ {
		if stats.TopEndpoints[i-1].TotalExecutions < stats.TopEndpoints[i].TotalExecutions {
			t.Error("Top endpoints should be sorted by executions descending")
		}
	}
	if stats.DocCount != 1 || stats.EndpointCount != 15 {
		t.Errorf("Unexpected counts %d/%d", stats.DocCount, stats.EndpointCount)
	}
}

func TestGetGlobalStats_HourlyStats(t *testing.T) {
	c := NewCollector()
	fixed := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	c.RecordExecution("doc-1", listUsers, success(time.Millisecond))
	c.RecordExecution("doc-1", listUsers, result(models.OutcomeCompleted, 503, time.Millisecond))

	stats := c.GetGlobalStats(1, 1)
	if len(stats.ExecutionsByHour) != 24 {
		t.Fatalf("Expected 24 hourly stats, got %d", len(stats.ExecutionsByHour))
	}

	current := stats.ExecutionsByHour[23]
	if current.Hour != "10:00" {
		t.Errorf("Expected current hour last, got %s", current.Hour)
	}
	if current.Executions != 2 || current.Failures != 1 {
		t.Errorf("Expected 2 executions and 1 failure, got %+v", current)
	}
}

func TestGetDocStats(t *testing.T) {
	c := NewCollector()

	c.RecordExecution("doc-1", listUsers, success(time.Millisecond))
	c.RecordExecution("doc-1", createUser, success(time.Millisecond))
	c.RecordExecution("doc-2", listItems, success(time.Millisecond))

	stats := c.GetDocStats("doc-1")
	if len(stats) != 2 {
		t.Fatalf("Expected 2 endpoints, got %d", len(stats))
	}
	if stats[0].Key != "GET /users" || stats[1].Key != "POST /users" {
		t.Errorf("Expected endpoints sorted by key, got %s, %s", stats[0].Key, stats[1].Key)
	}
	if len(c.GetDocStats("missing")) != 0 {
		t.Error("Expected no stats for unknown doc")
	}
}

func TestReset(t *testing.T) {
	c := NewCollector()

	c.RecordExecution("doc-1", listUsers, result(models.OutcomeCompleted, 500, time.Millisecond))
	c.RecordExecution("doc-1", listUsers, result(models.OutcomeInvalid, 0, 0))

	c.Reset()

	stats := c.GetGlobalStats(0, 0)
	if stats.TotalExecutions != 0 || stats.Rejected != 0 {
		t.Errorf("Expected counters cleared, got %+v", stats)
	}
	if len(stats.RecentFailures) != 0 {
		t.Errorf("Expected 0 failures after reset, got %d", len(stats.RecentFailures))
	}
}

func TestHourlyStatsCleanup(t *testing.T) {
	c := NewCollector()
	c.maxHourlySlots = 3

	c.mu.Lock()
	for _, h := range []string{"2024-01-01-00", "2024-01-01-01", "2024-01-01-02", "2024-01-01-03"} {
		c.hourlyStats[h] = &hourlyCounter{Hour: h, Executions: 1}
	}
	c.mu.Unlock()

	c.RecordExecution("doc-1", listUsers, success(time.Millisecond))

	c.mu.RLock()
	count := len(c.hourlyStats)
	c.mu.RUnlock()

	if count != c.maxHourlySlots {
		t.Errorf("Expected %d hourly slots, got %d", c.maxHourlySlots, count)
	}
}

func TestConcurrentStatsAccess(t *testing.T) {
	c := NewCollector()
	done := make(chan bool)

	for w := 0; w < 2; w++ {
		go func() {
			for i := 0; i < 100; i++ {
				c.RecordExecution("doc-1", listUsers, success(time.Duration(i)*time.Millisecond))
			}
			done <- true
		}()
	}

	go func() {
		for i := 0; i < 100; i++ {
			_ = c.GetGlobalStats(1, 1)
			_ = c.GetEndpointStats("doc-1", "GET /users")
		}
		done <- true
	}()

	for i := 0; i < 3; i++ {
		<-done
	}

	if got := c.GetGlobalStats(1, 1).TotalExecutions; got != 200 {
		t.Errorf("Expected 200 executions, got %d", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{1500 * time.Millisecond, "1.5s"},
		{5*time.Minute + 1500*time.Millisecond, "5m2s"},
		{2*time.Hour + 30*time.Second, "2h1m0s"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := formatDuration(tt.duration); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}
