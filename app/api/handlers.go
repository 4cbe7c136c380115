package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/feed-ingest/app/cfg"
	"github.com/lysyi3m/feed-ingest/app/database"
	"github.com/lysyi3m/feed-ingest/app/importer"
)

func NewHandler(users database.UserRepository, articles database.ArticleRepository,
	imp *importer.Importer) *Handler {
	return &Handler{
		users:    users,
		articles: articles,
		importer: imp,
		version:  cfg.Get().Version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
	}

	if userCount, err := h.users.GetUserCount(); err == nil {
		health["users"] = userCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{}

	if userCount, err := h.users.GetUserCount(); err == nil {
		stats["users_with_feeds"] = userCount
	} else {
		slog.Error("Database error", "operation", "count_users", "error", err)
	}

	if articleCount, err := h.articles.GetArticleCount(); err == nil {
		stats["articles"] = articleCount
	} else {
		slog.Error("Database error", "operation", "count_articles", "error", err)
	}

	lastRunAt, lastCreated := h.importer.LastRun()
	if lastRunAt != nil {
		stats["last_run_at"] = lastRunAt.Format(time.RFC3339)
		stats["last_run_created"] = lastCreated
	}

	c.JSON(http.StatusOK, stats)
}

// APITriggerImport starts an immediate import of every user with a
// feed URL, regardless of watermark. The run happens in the background;
// overlapping triggers are rejected by the importer itself.
func (h *Handler) APITriggerImport(c *gin.Context) {
	go func() {
		created, err := h.importer.Run(context.Background(), nil)
		if err != nil {
			slog.Error("Triggered import failed", "error", err, "created", created)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}
