package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/engram/pkg/search"
	"github.com/soundprediction/engram/pkg/server/dto"
	"github.com/soundprediction/engram/pkg/types"
)

func retrieveRouter(h *RetrieveHandler) *gin.Engine {
	r := gin.New()
	r.POST("/api/v1/search", h.Search)
	r.POST("/api/v1/search/nodes", h.SearchNodes)
	r.GET("/api/v1/episodes/:group_id", h.GetEpisodes)
	return r
}

func TestSearchRequiresQuery(t *testing.T) {
	router := retrieveRouter(NewRetrieveHandler(&fakeReader{}))

	w := postJSON(t, router, http.MethodPost, "/api/v1/search", dto.SearchRequest{Query: "  "})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_request", resp.Error)
}

func TestSearchReturnsFacts(t *testing.T) {
	validAt := time.Date(2011, 1, 3, 0, 0, 0, 0, time.UTC)
	invalidAt := time.Date(2017, 1, 3, 0, 0, 0, 0, time.UTC)
	reader := &fakeReader{
		searchResults: &types.SearchResults{
			Edges: []*types.Edge{
				{
					UUID:           "e1",
					Name:           "ATTORNEY_GENERAL_OF",
					Fact:           "Kamala Harris was the Attorney General of California",
					SourceNodeUUID: "n1",
					TargetNodeUUID: "n2",
					CreatedAt:      validAt,
					ValidAt:        &validAt,
					InvalidAt:      &invalidAt,
				},
			},
		},
	}
	router := retrieveRouter(NewRetrieveHandler(reader))

	req := dto.SearchRequest{
		Query:          "Who was the California Attorney General?",
		GroupID:        "tutorial",
		MaxFacts:       5,
		CenterNodeUUID: "n1",
	}
	w := postJSON(t, router, http.MethodPost, "/api/v1/search", req)
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, reader.lastOpts)
	assert.Equal(t, 5, reader.lastOpts.Limit)
	assert.Equal(t, "n1", reader.lastOpts.CenterNodeUUID)
	assert.Equal(t, "tutorial", reader.lastOpts.GroupID)

	var resp dto.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	fact := resp.Facts[0]
	assert.Equal(t, "e1", fact.UUID)
	assert.Equal(t, "Kamala Harris was the Attorney General of California", fact.Fact)
	assert.True(t, fact.Expired)
	require.NotNil(t, fact.ValidAt)
	assert.True(t, fact.ValidAt.Equal(validAt))
}

func TestSearchFailure(t *testing.T) {
	reader := &fakeReader{searchErr: errors.New("index missing")}
	router := retrieveRouter(NewRetrieveHandler(reader))

	w := postJSON(t, router, http.MethodPost, "/api/v1/search", dto.SearchRequest{Query: "anything"})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "search_failed", resp.Error)
}

func TestSearchNodesRejectsBadRecipes(t *testing.T) {
	router := retrieveRouter(NewRetrieveHandler(&fakeReader{}))

	tests := []struct {
		name   string
		recipe string
	}{
		{name: "unknown recipe", recipe: "node_hybrid_search_bogus"},
		{name: "edge recipe", recipe: search.RecipeEdgeHybridRRF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := dto.SearchNodesRequest{Query: "California Governor", Recipe: tt.recipe}
			w := postJSON(t, router, http.MethodPost, "/api/v1/search/nodes", req)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "invalid_request", resp.Error)
			assert.Contains(t, resp.Message, tt.recipe)
		})
	}
}

func TestSearchNodesDefaultsRecipe(t *testing.T) {
	reader := &fakeReader{nodes: []*types.Node{{UUID: "n1", Name: "Gavin Newsom"}}}
	router := retrieveRouter(NewRetrieveHandler(reader))

	w := postJSON(t, router, http.MethodPost, "/api/v1/search/nodes", dto.SearchNodesRequest{Query: "California Governor"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, search.RecipeNodeHybridRRF, reader.lastRecipe)

	var resp dto.SearchNodesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "Gavin Newsom", resp.Nodes[0].Name)
}

func TestSearchNodesPassesOptions(t *testing.T) {
	reader := &fakeReader{}
	router := retrieveRouter(NewRetrieveHandler(reader))

	req := dto.SearchNodesRequest{
		Query:   "jess",
		Recipe:  search.RecipeNodeEpisodeMentions,
		GroupID: "sales",
		Limit:   3,
	}
	w := postJSON(t, router, http.MethodPost, "/api/v1/search/nodes", req)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, search.RecipeNodeEpisodeMentions, reader.lastRecipe)
	require.NotNil(t, reader.lastOpts)
	assert.Equal(t, 3, reader.lastOpts.Limit)
	assert.Equal(t, "sales", reader.lastOpts.GroupID)
}

func TestGetEpisodes(t *testing.T) {
	reference := time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)
	reader := &fakeReader{
		episodes: []*types.Node{
			{
				UUID:      "ep1",
				Name:      "Freakonomics Radio 1",
				Kind:      types.EpisodicNode,
				GroupID:   "tutorial",
				Content:   "Kamala Harris grew up in Oakland",
				Source:    types.SourceText,
				Reference: reference,
			},
		},
	}
	router := retrieveRouter(NewRetrieveHandler(reader))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/episodes/tutorial?last_n=5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tutorial", reader.lastGroupID)
	assert.Equal(t, 5, reader.lastN)

	var resp dto.GetEpisodesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	ep := resp.Episodes[0]
	assert.Equal(t, "ep1", ep.UUID)
	assert.Equal(t, "text", ep.Source)
	assert.True(t, ep.Reference.Equal(reference))
}

func TestGetEpisodesLastNBounds(t *testing.T) {
	tests := []struct {
		name  string
		query string
		wantN int
	}{
		{name: "default", query: "", wantN: 10},
		{name: "zero falls back", query: "?last_n=0", wantN: 10},
		{name: "capped", query: "?last_n=500", wantN: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &fakeReader{}
			router := retrieveRouter(NewRetrieveHandler(reader))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/episodes/tutorial"+tt.query, nil))

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantN, reader.lastN)
		})
	}
}

func TestGetEpisodesRejectsBadLastN(t *testing.T) {
	router := retrieveRouter(NewRetrieveHandler(&fakeReader{}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/episodes/tutorial?last_n=abc", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
}
