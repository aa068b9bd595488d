package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/maintainly/fssync/internal/model"
	"github.com/maintainly/fssync/internal/queue"
	"github.com/maintainly/fssync/internal/store"
	"github.com/maintainly/fssync/internal/syncer"
)

// Runner is the orchestrator surface the API triggers.
type Runner interface {
	RunFullSync(ctx context.Context) syncer.Report
	RunStream(ctx context.Context, name string) (syncer.StreamResult, error)
}

type Handler struct {
	runner  Runner
	store   store.Store
	cursors store.CursorStore
	q       queue.Client
	logger  *zap.Logger
	mux     *gin.Engine
}

// NewHandler creates the API handler. cursors defaults to s and q may be nil;
// when set, queued jobs are published to it.
func NewHandler(r Runner, s store.Store, cursors store.CursorStore, q queue.Client, logger *zap.Logger) *Handler {
	if cursors == nil {
		cursors = s
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := gin.New()
	mux.Use(gin.Recovery())
	h := &Handler{runner: r, store: s, cursors: cursors, q: q, logger: logger, mux: mux}
	h.routes()
	return h
}

// Router returns the underlying http.Handler (gin engine implements http.Handler)
func (h *Handler) Router() *gin.Engine { return h.mux }

func (h *Handler) routes() {
	h.mux.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// synchronous runs
	h.mux.POST("/sync", h.fullSync)
	h.mux.POST("/sync/streams/:stream", h.streamSync)
	h.mux.GET("/sync/cursors", h.listCursors)

	// queued runs
	h.mux.POST("/sync/jobs", h.createJob)
	h.mux.GET("/sync/jobs", h.listJobs)
	h.mux.GET("/sync/jobs/:id", h.jobByID)

	h.mux.GET("/settings/technicians", h.technicians)
}

// fullSync always answers 200; callers inspect the ok flags.
func (h *Handler) fullSync(c *gin.Context) {
	c.JSON(http.StatusOK, h.runner.RunFullSync(c.Request.Context()))
}

func (h *Handler) streamSync(c *gin.Context) {
	name := c.Param("stream")
	res, err := h.runner.RunStream(c.Request.Context(), name)
	if errors.Is(err, syncer.ErrUnknownStream) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "streams": syncer.Streams})
		return
	}
	out := syncer.StreamReport{Stream: name, OK: err == nil}
	if err != nil {
		out.Error = err.Error()
	} else {
		out.Counts = &res
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) listCursors(c *gin.Context) {
	list, err := h.cursors.ListCursors(c.Request.Context())
	if err != nil {
		h.logger.Error("list cursors", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) createJob(c *gin.Context) {
	var in struct {
		Stream string `json:"stream"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.String(http.StatusBadRequest, "invalid json")
		return
	}
	if in.Stream == "" {
		in.Stream = model.JobFull
	}
	if in.Stream != model.JobFull && !syncer.KnownStream(in.Stream) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown stream", "streams": syncer.Streams})
		return
	}
	ctx := c.Request.Context()
	id, err := h.store.CreateJob(ctx, &model.Job{Stream: in.Stream})
	if err != nil {
		h.logger.Error("create job", zap.Error(err))
		c.String(http.StatusInternalServerError, "create error")
		return
	}
	if h.q != nil {
		if err := h.q.Publish(ctx, id); err != nil {
			h.logger.Warn("failed to publish job", zap.String("job", id), zap.Error(err))
		}
	}
	c.JSON(http.StatusAccepted, gin.H{"id": id})
}

func (h *Handler) listJobs(c *gin.Context) {
	list, err := h.store.ListJobs(c.Request.Context())
	if err != nil {
		h.logger.Error("list jobs", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) jobByID(c *gin.Context) {
	j, err := h.store.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.String(http.StatusNotFound, "not found")
			return
		}
		h.logger.Error("get job", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal")
		return
	}
	c.JSON(http.StatusOK, j)
}

func (h *Handler) technicians(c *gin.Context) {
	v, err := h.store.GetSetting(c.Request.Context(), syncer.TechniciansKey)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusOK, []string{})
		return
	}
	if err != nil {
		h.logger.Error("get technicians", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal")
		return
	}
	names := []string{}
	if err := json.Unmarshal([]byte(v), &names); err != nil {
		h.logger.Error("decode technicians", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal")
		return
	}
	c.JSON(http.StatusOK, names)
}
