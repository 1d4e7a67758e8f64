package core

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// healthCheckTimeout bounds the total time spent probing dependencies.
const healthCheckTimeout = 2 * time.Second

// HealthProbe is one critical dependency check.
type HealthProbe interface {
	Name() string
	Check(ctx context.Context) error
}

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandleHealth runs all probes concurrently under a shared deadline. Any
// probe failure or timeout yields 503 with per-component detail.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if len(s.HealthProbes) == 0 {
		JSON(w, r, http.StatusOK, healthResponse{Status: "healthy"})
		return
	}

	var mu sync.Mutex
	results := make(map[string]error, len(s.HealthProbes))

	var wg sync.WaitGroup
	for _, probe := range s.HealthProbes {
		wg.Add(1)
		go func(p HealthProbe) {
			defer wg.Done()
			err := p.Check(ctx)
			mu.Lock()
			results[p.Name()] = err
			mu.Unlock()
		}(probe)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		// Probes still running are reported as timed out below.
	}

	mu.Lock()
	defer mu.Unlock()

	components := make(map[string]componentStatus, len(s.HealthProbes))
	healthy := true
	for _, probe := range s.HealthProbes {
		name := probe.Name()
		err, completed := results[name]
		switch {
		case !completed:
			healthy = false
			components[name] = componentStatus{Status: "unhealthy", Message: "health check timed out"}
		case err != nil:
			healthy = false
			components[name] = componentStatus{Status: "unhealthy", Message: err.Error()}
		default:
			components[name] = componentStatus{Status: "healthy"}
		}
	}

	resp := healthResponse{Status: "healthy", Components: components}
	status := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	JSON(w, r, status, resp)
}
