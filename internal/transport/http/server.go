package http

import (
	stdhttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/chatrelay-server/internal/config"
	"github.com/vovakirdan/chatrelay-server/internal/core"
	"github.com/vovakirdan/chatrelay-server/internal/proto"
	"github.com/vovakirdan/chatrelay-server/internal/store"
)

const (
	serviceName    = "chatrelay-server"
	serviceVersion = "0.1.0"

	maxRecentMessages = 100
)

// ErrorResponse is the JSON error body of the REST surface.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// StatsResponse is the /api/stats body.
type StatsResponse struct {
	ActiveUsers   int   `json:"active_users"`
	TotalMessages int64 `json:"total_messages"`
}

// NewServer builds the HTTP server: health check, stats, recent message
// query, and the WebSocket chat endpoint.
func NewServer(coord *core.Coordinator, archive store.MessageArchive, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger), CORSMiddleware(cfg.CORSOrigins))

	router.GET("/health", healthHandler)

	api := router.Group("/api")
	api.GET("/stats", statsHandler(coord, archive, logger))
	api.GET("/messages", messagesHandler(archive, logger))

	router.GET("/ws/chat", gin.WrapH(NewWSHandler(coord, cfg, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, HealthResponse{
		Status:  "ok",
		Service: serviceName,
		Version: serviceVersion,
	})
}

func statsHandler(coord *core.Coordinator, archive store.MessageArchive, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		total, err := archive.CountMessages(c.Request.Context())
		if err != nil {
			logger.Error().Err(err).Msg("count messages")
			c.JSON(stdhttp.StatusInternalServerError, ErrorResponse{Error: "stats unavailable"})
			return
		}

		c.JSON(stdhttp.StatusOK, StatsResponse{
			ActiveUsers:   coord.ConnectionCount(),
			TotalMessages: total,
		})
	}
}

func messagesHandler(archive store.MessageArchive, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if err != nil || limit <= 0 {
			c.JSON(stdhttp.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		if limit > maxRecentMessages {
			limit = maxRecentMessages
		}

		records, err := archive.ListRecent(c.Request.Context(), limit)
		if err != nil {
			logger.Error().Err(err).Msg("list recent messages")
			c.JSON(stdhttp.StatusInternalServerError, ErrorResponse{Error: "messages unavailable"})
			return
		}

		messages := lo.Map(records, func(rec *store.MessageRecord, _ int) proto.MessageData {
			return proto.MessageData{
				ID:        rec.ID,
				Username:  rec.Username,
				Content:   rec.Content,
				Timestamp: rec.CreatedAt.Unix(),
			}
		})
		c.JSON(stdhttp.StatusOK, messages)
	}
}
