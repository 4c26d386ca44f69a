package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mybookshelf/catalog/internal/http/response"
)

// syncBacklogDegraded is the pending task count above which index sync
// reports itself degraded.
const syncBacklogDegraded = 10000

// Component statuses.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse contains the readiness report.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{"status": statusHealthy}, s.logger)
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(r),
		"search":   s.checkSearchIndex(),
		"sync":     s.checkSync(),
	}

	overall := statusHealthy
	for _, c := range components {
		switch c.Status {
		case statusUnhealthy:
			overall = statusUnhealthy
		case statusDegraded:
			if overall == statusHealthy {
				overall = statusDegraded
			}
		}
	}

	body := HealthResponse{Status: overall, Components: components}
	if overall == statusUnhealthy {
		response.ServiceUnavailable(w, body, s.logger)
		return
	}
	response.Success(w, body, s.logger)
}

// checkDatabase verifies SQLite answers.
func (s *Server) checkDatabase(r *http.Request) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{Status: statusDegraded, Message: "database not configured"}
	}

	start := time.Now()
	err := s.store.Ping(r.Context())
	latency := time.Since(start)

	if err != nil {
		s.logger.Warn("readiness: database ping failed", "error", err)
		return ComponentHealth{Status: statusUnhealthy, Latency: latency.String(), Message: "database ping failed"}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String()}
}

// checkSearchIndex verifies the Bleve index is accessible.
func (s *Server) checkSearchIndex() ComponentHealth {
	if s.index == nil {
		return ComponentHealth{Status: statusDegraded, Message: "search index not configured"}
	}

	start := time.Now()
	count, err := s.index.DocumentCount()
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{Status: statusUnhealthy, Latency: latency.String(), Message: "search index unreachable"}
	}
	return ComponentHealth{
		Status:  statusHealthy,
		Latency: latency.String(),
		Message: strconv.FormatUint(count, 10) + " documents",
	}
}

// checkSync reports the index sync backlog.
func (s *Server) checkSync() ComponentHealth {
	if s.sync == nil {
		return ComponentHealth{Status: statusDegraded, Message: "index sync not configured"}
	}

	pending := s.sync.Pending()
	msg := strconv.Itoa(pending) + " pending tasks"
	if pending > syncBacklogDegraded {
		return ComponentHealth{Status: statusDegraded, Message: msg}
	}
	return ComponentHealth{Status: statusHealthy, Message: msg}
}
