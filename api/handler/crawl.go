package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crawlworks/reviewharvest/crawl"
	"github.com/crawlworks/reviewharvest/models"
	"github.com/crawlworks/reviewharvest/webhook"
)

// crawlStore holds all in-flight and completed crawl jobs.
var crawlStore sync.Map

func init() {
	// Background goroutine to expire crawl jobs older than 1 hour.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour).Unix()
			crawlStore.Range(func(key, value any) bool {
				job := value.(*models.CrawlJob)
				if job.CreatedAt < cutoff {
					crawlStore.Delete(key)
				}
				return true
			})
		}
	}()
}

// ActiveJobs counts jobs currently processing.
func ActiveJobs() int {
	n := 0
	crawlStore.Range(func(_, value any) bool {
		if value.(*models.CrawlJob).Status == "processing" {
			n++
		}
		return true
	})
	return n
}

// PostCrawl returns a handler for POST /api/v1/crawl.
//
// The subject is validated eagerly so an unusable request fails here with
// 400 instead of producing a doomed job.
func PostCrawl(orch *crawl.Orchestrator, defaults crawl.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CrawlRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.CrawlResponse{
				Status: "failed",
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		if _, err := crawl.ResolveSubject(req.Subject); err != nil {
			var ce *models.CrawlError
			detail := &models.ErrorDetail{Code: models.ErrCodeInvalidSubject, Message: err.Error()}
			if errors.As(err, &ce) {
				detail = ce.ToDetail()
			}
			c.JSON(http.StatusBadRequest, models.CrawlResponse{Status: "failed", Error: detail})
			return
		}

		opts := defaults
		if req.MaxPages > 0 {
			opts.MaxPages = req.MaxPages
		}
		if req.FetchBody != nil {
			opts.FetchBody = *req.FetchBody
		}
		if req.BodyFormat != "" {
			opts.BodyFormat = req.BodyFormat
		}

		jobID := "crawl-" + randomID()
		job := &models.CrawlJob{
			ID:            jobID,
			Status:        "processing",
			CreatedAt:     time.Now().Unix(),
			WebhookURL:    req.WebhookURL,
			WebhookSecret: req.WebhookSecret,
		}
		crawlStore.Store(jobID, job)

		go runJob(orch, job, req.Subject, opts)

		c.JSON(http.StatusOK, models.CrawlResponse{
			ID:     jobID,
			Status: "processing",
		})
	}
}

// GetCrawl returns a handler for GET /api/v1/crawl/:id.
func GetCrawl() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		val, ok := crawlStore.Load(jobID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "crawl job not found",
				},
			})
			return
		}

		job := val.(*models.CrawlJob)
		resp := models.CrawlStatusResponse{
			ID:     job.ID,
			Status: job.Status,
			Result: job.Result,
			Error:  job.Error,
		}
		if job.Result != nil {
			resp.Records = len(job.Result.Records)
			resp.Pages = job.Result.PagesVisited
		}
		c.JSON(http.StatusOK, resp)
	}
}

// runJob executes one crawl in the background and settles the job status
// exactly once: completed, no_records, or failed.
func runJob(orch *crawl.Orchestrator, job *models.CrawlJob, subject string, opts crawl.Options) {
	result, err := orch.Run(context.Background(), subject, opts)

	switch {
	case err != nil:
		job.Result = result
		job.Status = "failed"
		var ce *models.CrawlError
		if errors.As(err, &ce) {
			job.Error = ce.ToDetail()
		} else {
			job.Error = &models.ErrorDetail{Code: models.ErrCodeInternal, Message: err.Error()}
		}
	case len(result.Records) == 0:
		job.Result = result
		job.Status = "no_records"
	default:
		job.Result = result
		job.Status = "completed"
	}

	records := 0
	if job.Result != nil {
		records = len(job.Result.Records)
	}
	slog.Info("crawl job finished",
		"id", job.ID,
		"status", job.Status,
		"records", records,
	)

	if job.WebhookURL != "" {
		webhook.DeliverAsync(job.WebhookURL, job.WebhookSecret, &webhook.Event{
			Type:      "crawl." + job.Status,
			JobID:     job.ID,
			Timestamp: time.Now().Unix(),
			Data:      job.Result,
		})
	}
}

// randomID generates a short hex job id.
func randomID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))[:16]
	}
	return hex.EncodeToString(b)
}
