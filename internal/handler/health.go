package handler

import (
	"context"
	"net/http"
	"time"

	"comedybar/internal/infra"
	"comedybar/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health checks DB and Redis connectivity and reports the SMTP breaker
// state and parked jobs, including the sessions whose reports failed.
// Credentials never appear in the output.
func Health(db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		dead := gin.H{}
		if redisStatus == "connected" {
			for _, q := range []string{worker.QueueReports, worker.QueueEmail} {
				if stats, err := worker.InspectDeadJobs(ctx, rdb, q, 20); err == nil {
					dead[q] = stats
				}
			}
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":        status == http.StatusOK,
			"db":        dbStatus,
			"redis":     redisStatus,
			"smtp":      smtpCB.State().String(),
			"dead_jobs": dead,
		})
	}
}
