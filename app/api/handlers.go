package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/motd-comb/app/database"
	"github.com/lysyi3m/motd-comb/app/feed"
	"github.com/lysyi3m/motd-comb/app/motd"
	"github.com/lysyi3m/motd-comb/app/publish"
	"github.com/lysyi3m/motd-comb/app/snapshot"
	"github.com/lysyi3m/motd-comb/app/tasks"
)

func NewHandler(store database.Store, blobs BlobSource, scheduler tasks.TaskSchedulerInterface,
	generator GeneratorInterface, opts Options) *Handler {
	if opts.SnapshotName == "" {
		opts.SnapshotName = "data.json"
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")

	return &Handler{
		store:     store,
		blobs:     blobs,
		scheduler: scheduler,
		generator: generator,
		opts:      opts,
	}
}

func (h *Handler) GetSnapshot(c *gin.Context) {
	body, meta, err := h.blobs.Open(h.opts.SnapshotName)
	if errors.Is(err, publish.ErrNotFound) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Snapshot read error", "name", h.opts.SnapshotName, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", meta.ContentType)
	if meta.ContentEncoding != "" {
		c.Header("Content-Encoding", meta.ContentEncoding)
	}
	c.Header("Cache-Control", "public, max-age=60")

	http.ServeContent(c.Writer, c.Request, h.opts.SnapshotName, meta.PublishedAt, body)
}

func (h *Handler) GetFeed(c *gin.Context) {
	records, err := database.ScanAll(c.Request.Context(), h.store, false)
	if err != nil {
		slog.Error("Database error", "operation", "scan_motds", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	motds, err := snapshot.CleanRecords(records)
	if err != nil {
		slog.Error("MOTD parse error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if h.opts.FeedMaxItems > 0 && len(motds) > h.opts.FeedMaxItems {
		motds = motds[:h.opts.FeedMaxItems]
	}

	rss, err := h.generator.Run(feed.Channel{
		Link:     h.opts.BaseURL,
		SelfLink: h.opts.BaseURL + "/feed.xml",
		Language: "en",
	}, motds)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(motds)))
	if len(motds) > 0 {
		c.Header("X-Last-Updated", time.Unix(motds[0].StartTime, 0).UTC().Format(time.RFC3339))
	}

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.opts.Version,
	}

	if count, err := h.store.Count(c.Request.Context()); err == nil {
		health["motds"] = count
	} else {
		slog.Warn("Failed to count motds", "error", err)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIUpdate(c *gin.Context) {
	records, err := h.scheduler.RunUpdate(c.Request.Context())
	if err != nil {
		slog.Error("MOTD update failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "MOTD update failed",
			"details": err.Error(),
		})
		return
	}

	if records == nil {
		records = []database.Record{}
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   len(records),
	})
}

func (h *Handler) APIExport(c *gin.Context) {
	if err := h.scheduler.EnqueueExport(); err != nil {
		slog.Error("Error enqueueing export task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue export task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Export task enqueued",
	})
}

func (h *Handler) APIGetMOTD(c *gin.Context) {
	h.showMOTD(c, c.Param("key"))
}

func (h *Handler) showMOTD(c *gin.Context, rawKey string) {
	key, err := strconv.ParseInt(rawKey, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid MOTD key"})
		return
	}

	rec, err := h.store.Get(c.Request.Context(), key, true)
	if err != nil {
		slog.Error("Database error", "operation", "get_motd", "key", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "MOTD not found"})
		return
	}

	raw, err := motd.DecodeRecord(rec.Value)
	if err != nil {
		slog.Error("Stored MOTD is not valid JSON", "key", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stored MOTD is not valid JSON"})
		return
	}

	clean, err := motd.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Failed to parse MOTD",
			"details": err.Error(),
			"raw":     raw,
		})
		return
	}

	c.JSON(http.StatusOK, motdResponse{Key: key, Raw: raw, Clean: clean})
}

// Index lists the endpoints. With ?id=<key>, the target of announcement
// links, it shows that MOTD instead.
func (h *Handler) Index(apiEnabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.Query("id"); id != "" {
			h.showMOTD(c, id)
			return
		}

		endpoints := map[string]string{
			"snapshot": "/" + h.opts.SnapshotName,
			"feed":     "/feed.xml",
			"health":   "/health",
		}

		if apiEnabled {
			endpoints["update"] = "/api/update (POST, requires X-API-Key header)"
			endpoints["export"] = "/api/export (POST, requires X-API-Key header)"
			endpoints["motd"] = "/api/motds/<key> (requires X-API-Key header)"
		}

		c.JSON(http.StatusOK, gin.H{
			"service":     "MOTD Comb",
			"version":     h.opts.Version,
			"description": fmt.Sprintf("SMITE Match of the Day history for %s", h.opts.BaseURL),
			"endpoints":   endpoints,
			"api_status": map[string]interface{}{
				"enabled":       apiEnabled,
				"auth_required": apiEnabled,
				"header":        "X-API-Key",
			},
		})
	}
}
