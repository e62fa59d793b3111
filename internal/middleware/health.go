package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthStatus struct {
	Status      string    `json:"status"`
	Database    string    `json:"database"`
	LastChecked time.Time `json:"last_checked"`
	Uptime      string    `json:"uptime"`
	Version     string    `json:"version"`
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthCheck caches its answer for a few seconds so frequent health checks never hammer the database.
type HealthCheck struct {
	db            Pinger
	mu            sync.Mutex
	startTime     time.Time
	version       string
	lastResponse  []byte
	lastStatus    int
	lastChecked   time.Time
	cacheDuration time.Duration
}

func NewHealthCheck(db Pinger, version string) *HealthCheck {
	return &HealthCheck{
		db:            db,
		startTime:     time.Now(),
		version:       version,
		cacheDuration: 5 * time.Second,
	}
}

func (h *HealthCheck) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.mu.Lock()
		defer h.mu.Unlock()

		if h.lastResponse != nil && time.Since(h.lastChecked) < h.cacheDuration {
			c.Data(h.lastStatus, "application/json", h.lastResponse)
			return
		}

		status := HealthStatus{
			Status:      "ok",
			Database:    "ok",
			LastChecked: time.Now(),
			Uptime:      time.Since(h.startTime).Round(time.Second).String(),
			Version:     h.version,
		}
		code := http.StatusOK

		if h.db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := h.db.PingContext(ctx); err != nil {
				status.Status = "degraded"
				status.Database = err.Error()
				code = http.StatusServiceUnavailable
			}
		}

		body, _ := json.Marshal(status)
		h.lastResponse = body
		h.lastStatus = code
		h.lastChecked = status.LastChecked

		c.Data(code, "application/json", body)
	}
}
