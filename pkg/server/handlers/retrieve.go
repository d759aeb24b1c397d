package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/engram"
	"github.com/soundprediction/engram/pkg/search"
	"github.com/soundprediction/engram/pkg/server/dto"
	"github.com/soundprediction/engram/pkg/types"
)

// maxEpisodesPerPage caps the episodes endpoint.
const maxEpisodesPerPage = 100

// RetrieveHandler answers search and episode queries.
type RetrieveHandler struct {
	reader engram.GraphReader
}

// NewRetrieveHandler creates a retrieve handler.
func NewRetrieveHandler(reader engram.GraphReader) *RetrieveHandler {
	return &RetrieveHandler{reader: reader}
}

// Search handles POST /api/v1/search.
func (h *RetrieveHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	opts := &types.SearchOptions{
		Limit:          req.MaxFacts,
		CenterNodeUUID: req.CenterNodeUUID,
		GroupID:        req.GroupID,
		MinScore:       req.MinScore,
	}
	results, err := h.reader.Search(c.Request.Context(), req.Query, opts)
	if err != nil {
		abortError(c, http.StatusInternalServerError, "search_failed", err.Error())
		return
	}

	facts := make([]dto.FactResult, 0, len(results.Edges))
	for _, edge := range results.Edges {
		facts = append(facts, dto.FactResult{
			UUID:           edge.UUID,
			Fact:           edge.Fact,
			Name:           edge.Name,
			SourceNodeUUID: edge.SourceNodeUUID,
			TargetNodeUUID: edge.TargetNodeUUID,
			CreatedAt:      edge.CreatedAt,
			ValidAt:        edge.ValidAt,
			InvalidAt:      edge.InvalidAt,
			Expired:        edge.Expired(),
		})
	}

	c.JSON(http.StatusOK, dto.SearchResponse{Facts: facts, Total: len(facts)})
}

// SearchNodes handles POST /api/v1/search/nodes.
func (h *RetrieveHandler) SearchNodes(c *gin.Context) {
	var req dto.SearchNodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	recipe := req.Recipe
	if recipe == "" {
		recipe = search.RecipeNodeHybridRRF
	}
	// Reject bad recipe names here so the caller gets a 400, not a 500.
	cfg, ok := search.Recipe(recipe)
	if !ok {
		abortError(c, http.StatusBadRequest, "invalid_request",
			"unknown search recipe "+strconv.Quote(recipe))
		return
	}
	if cfg.Node == nil {
		abortError(c, http.StatusBadRequest, "invalid_request",
			"recipe "+strconv.Quote(recipe)+" does not search nodes")
		return
	}

	opts := &types.SearchOptions{Limit: req.Limit, GroupID: req.GroupID}
	nodes, err := h.reader.SearchNodes(c.Request.Context(), req.Query, recipe, opts)
	if err != nil {
		abortError(c, http.StatusInternalServerError, "search_failed", err.Error())
		return
	}

	out := make([]dto.NodeResult, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, dto.NodeResult{
			UUID:       node.UUID,
			Name:       node.Name,
			EntityType: node.EntityType,
			Summary:    node.Summary,
			CreatedAt:  node.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, dto.SearchNodesResponse{Nodes: out, Total: len(out)})
}

// GetEpisodes handles GET /api/v1/episodes/:group_id.
func (h *RetrieveHandler) GetEpisodes(c *gin.Context) {
	groupID := c.Param("group_id")

	lastN := 10
	if raw := c.Query("last_n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			abortError(c, http.StatusBadRequest, "invalid_request", "last_n must be an integer")
			return
		}
		lastN = n
	}
	if lastN <= 0 {
		lastN = 10
	}
	if lastN > maxEpisodesPerPage {
		lastN = maxEpisodesPerPage
	}

	nodes, err := h.reader.GetEpisodes(c.Request.Context(), groupID, lastN)
	if err != nil {
		abortError(c, http.StatusInternalServerError, "retrieval_failed", err.Error())
		return
	}

	episodes := make([]dto.EpisodeResult, 0, len(nodes))
	for _, node := range nodes {
		episodes = append(episodes, dto.EpisodeResult{
			UUID:      node.UUID,
			Name:      node.Name,
			GroupID:   node.GroupID,
			Content:   node.Content,
			Source:    string(node.Source),
			Reference: node.Reference,
			CreatedAt: node.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, dto.GetEpisodesResponse{Episodes: episodes, Total: len(episodes)})
}
