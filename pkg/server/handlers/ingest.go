package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/engram"
	"github.com/soundprediction/engram/pkg/server/dto"
	"github.com/soundprediction/engram/pkg/types"
)

// IngestHandler accepts episodes and runs destructive maintenance.
type IngestHandler struct {
	writer  engram.EpisodeWriter
	admin   engram.GraphAdmin
	groupID string
}

// NewIngestHandler creates an ingest handler. groupID is the group the
// server is configured for; the clear endpoint refuses any other.
func NewIngestHandler(writer engram.EpisodeWriter, admin engram.GraphAdmin, groupID string) *IngestHandler {
	return &IngestHandler{writer: writer, admin: admin, groupID: groupID}
}

// generateProcessID returns an ID for tracking an async ingestion run.
func generateProcessID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("proc_%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("proc_%s", hex.EncodeToString(bytes))
}

func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: code, Message: message})
}

// AddMessages handles POST /api/v1/ingest/messages. Extraction runs LLM
// calls per message, so the work happens in the background and the
// response acknowledges with a process ID.
func (h *IngestHandler) AddMessages(c *gin.Context) {
	var req dto.AddMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	reference := time.Now().UTC()
	if req.Reference != nil {
		reference = req.Reference.UTC()
	}

	episodes := make([]types.Episode, 0, len(req.Messages))
	for _, msg := range req.Messages {
		ts := reference
		if msg.Timestamp != nil {
			ts = msg.Timestamp.UTC()
		}
		episodes = append(episodes, types.Episode{
			Name:              fmt.Sprintf("%s message at %s", msg.Role, ts.Format("2006-01-02 15:04:05")),
			Content:           fmt.Sprintf("%s: %s", msg.Role, msg.Content),
			Source:            types.SourceMessage,
			SourceDescription: "chat message",
			Reference:         ts,
			GroupID:           req.GroupID,
		})
	}

	processID := generateProcessID()
	logger := slog.Default().With("process_id", processID, "group_id", req.GroupID)

	// Request context dies with the response; the background run gets its
	// own.
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic during message ingestion", "panic", r)
			}
		}()

		result, err := h.writer.AddEpisodeBulk(context.Background(), episodes, nil)
		if err != nil {
			logger.Error("message ingestion failed", "error", err)
			return
		}
		logger.Info("messages ingested",
			"episodes", result.Episodes,
			"entities", result.Nodes,
			"edges", result.Edges)
	}()

	c.JSON(http.StatusAccepted, dto.IngestResponse{
		Success:   true,
		Message:   fmt.Sprintf("Queued %d messages for processing", len(req.Messages)),
		ProcessID: processID,
	})
}

// ClearData handles DELETE /api/v1/ingest/clear. The request must name
// the configured group; wiping other groups over the API is refused.
func (h *IngestHandler) ClearData(c *gin.Context) {
	var req dto.ClearDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.GroupID != h.groupID {
		abortError(c, http.StatusBadRequest, "invalid_request",
			fmt.Sprintf("group_id %q does not match the configured group", req.GroupID))
		return
	}

	if err := h.admin.ClearGraph(c.Request.Context()); err != nil {
		abortError(c, http.StatusInternalServerError, "clear_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.IngestResponse{
		Success: true,
		Message: fmt.Sprintf("Cleared all data for group %q", req.GroupID),
	})
}
