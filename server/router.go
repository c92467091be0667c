package server

import (
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"net/http"
	"scene-worker/dto"
	jobHandler "scene-worker/handler"
	"scene-worker/pkg/scheduler"
	"scene-worker/repository"
	"strconv"
)

type statusSource interface {
	Status() scheduler.Status
}

func NewRouter(sched statusSource, repo repository.JobRepository, deps jobHandler.ServiceDependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	addHealth(r)

	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, sched.Status())
	})

	runs := r.Group("/runs")
	runs.POST("", func(c *gin.Context) {
		var req dto.RunRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		if req.Reason == "" {
			req.Reason = "http"
		}
		res := jobHandler.Trigger(c.Request.Context(), req, deps)
		if !res.Accepted {
			c.JSON(http.StatusConflict, res)
			return
		}
		c.JSON(http.StatusAccepted, res)
	})

	runs.GET("", func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		jobs, err := repo.ListJobs(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, jobs)
	})

	runs.GET("/:id", func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}
		job, err := repo.FindJobById(c.Request.Context(), id)
		if errors.Is(err, repository.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, job)
	})

	return r
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}
