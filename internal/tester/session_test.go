package tester

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasenjit/go-apidocs/internal/models"
)

// gatedServer answers /slow only after release is closed
func gatedServer(t *testing.T) (*httptest.Server, chan struct{}, chan struct{}) {
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			arrived <- struct{}{}
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
		}
		io.WriteString(w, `{"path":"`+r.URL.Path+`"}`)
	}))
	t.Cleanup(server.Close)
	return server, arrived, release
}

func slowAndFast(baseURL string) (*Request, *Request) {
	return NewRequest(baseURL, &models.Endpoint{Path: "/slow", Method: models.MethodGet}),
		NewRequest(baseURL, &models.Endpoint{Path: "/fast", Method: models.MethodGet})
}

func TestSession_StaleResultDiscarded(t *testing.T) {
	server, arrived, release := gatedServer(t)
	session := NewSession("s1", "doc", NewEngine(Options{}))
	slow, fast := slowAndFast(server.URL)

	var wg sync.WaitGroup
	var firstResult *models.TestResult
	var firstCurrent bool
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstResult, firstCurrent = session.Send(context.Background(), slow)
	}()
	<-arrived
	assert.Equal(t, 1, session.Pending())

	second, current := session.Send(context.Background(), fast)
	require.True(t, current)
	assert.Equal(t, uint64(2), second.Sequence)
	assert.Equal(t, server.URL+"/fast", session.Last().URL)

	close(release)
	wg.Wait()

	assert.False(t, firstCurrent, "first request resolved last and must be discarded")
	assert.Equal(t, uint64(1), firstResult.Sequence)
	assert.Equal(t, models.OutcomeCompleted, firstResult.Outcome)

	last := session.Last()
	require.NotNil(t, last)
	assert.Equal(t, uint64(2), last.Sequence)
	assert.Equal(t, server.URL+"/fast", last.URL)
	assert.Equal(t, 0, session.Pending())
}

func TestSession_Cancel(t *testing.T) {
	server, arrived, _ := gatedServer(t)
	session := NewSession("s1", "doc", NewEngine(Options{}))
	slow, _ := slowAndFast(server.URL)

	done := make(chan *models.TestResult, 1)
	go func() {
		result, _ := session.Send(context.Background(), slow)
		done <- result
	}()
	<-arrived

	assert.Equal(t, 1, session.Cancel())

	select {
	case result := <-done:
		assert.Equal(t, models.OutcomeCanceled, result.Outcome)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled call did not return")
	}

	// The canceled call was still the latest one, so it owns the slot
	require.NotNil(t, session.Last())
	assert.Equal(t, models.OutcomeCanceled, session.Last().Outcome)
}

func TestSession_Close(t *testing.T) {
	server, arrived, _ := gatedServer(t)
	session := NewSession("s1", "doc", NewEngine(Options{}))
	slow, fast := slowAndFast(server.URL)

	done := make(chan bool, 1)
	go func() {
		_, current := session.Send(context.Background(), slow)
		done <- current
	}()
	<-arrived

	session.Close()
	assert.True(t, session.Closed())

	select {
	case current := <-done:
		assert.False(t, current)
	case <-time.After(5 * time.Second):
		t.Fatal("closed session did not abort its call")
	}
	assert.Nil(t, session.Last(), "arrivals after close are dropped")

	result, current := session.Send(context.Background(), fast)
	assert.False(t, current)
	assert.Equal(t, models.OutcomeCanceled, result.Outcome)
	assert.Equal(t, uint64(1), session.Sequence())
}
