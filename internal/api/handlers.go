package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/part-recommender/internal/catalog"
	"github.com/spigell/part-recommender/internal/category"
	"github.com/spigell/part-recommender/internal/matching"
	"github.com/spigell/part-recommender/internal/recommender"
	"github.com/spigell/part-recommender/internal/spec"
)

const maxRequestBody = 8 << 20

// HistoryReader lists recorded runs.
type HistoryReader interface {
	RecentQueries(ctx context.Context, limit int) ([]catalog.Query, error)
}

// Defaults apply to requests that leave mode or top unset. Configured
// exclusions are always applied in addition to the request's own.
type Defaults struct {
	Mode           matching.RankMode
	Top            int
	ExcludeVendors []string
	ExcludeParts   []string
}

// API holds dependencies for API handlers.
type API struct {
	service  *recommender.Service
	source   catalog.Source
	history  HistoryReader
	defaults Defaults
	logger   *zap.Logger
}

// NewAPI creates a new API handler structure. source and history may be nil.
func NewAPI(service *recommender.Service, source catalog.Source, history HistoryReader, defaults Defaults, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.Mode == "" {
		defaults.Mode = matching.ModeCurrent
	}

	return &API{
		service:  service,
		source:   source,
		history:  history,
		defaults: defaults,
		logger:   logger,
	}
}

// SetupRoutes defines all the API routes.
func SetupRoutes(router *gin.Engine, a *API) {
	router.Use(RequestIDMiddleware(), LoggerMiddleware(a.logger))

	router.GET("/healthz", a.HealthCheckHandler)

	v1 := router.Group("/v1")
	{
		v1.GET("/categories", a.ListCategoriesHandler)
		v1.GET("/candidates", a.ListCandidatesHandler)
		v1.GET("/history", a.ListHistoryHandler)
		v1.POST("/recommend", RequestSizeLimitMiddleware(maxRequestBody), a.RecommendHandler)
	}
}

// RecommendRequest is the body of POST /v1/recommend. Candidates, when
// present, replace the catalog for this request.
type RecommendRequest struct {
	Requirements   map[string]any  `json:"requirements"`
	Candidates     json.RawMessage `json:"candidates,omitempty"`
	Mode           string          `json:"mode,omitempty"`
	Top            *int            `json:"top,omitempty"`
	Ignore         []string        `json:"ignore,omitempty"`
	ExcludeVendors []string        `json:"exclude_vendors,omitempty"`
	ExcludeParts   []string        `json:"exclude_parts,omitempty"`
	AI             bool            `json:"ai,omitempty"`
}

func (a *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *API) ListCategoriesHandler(c *gin.Context) {
	out := make([]gin.H, 0)
	for _, name := range category.Names() {
		cat, _ := category.Lookup(name)
		out = append(out, gin.H{
			"name":            cat.Name,
			"key_metrics":     cat.KeyMetrics,
			"required_fields": cat.RequiredFields,
		})
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

// ListCandidatesHandler returns the catalog, optionally narrowed with
// ?category=.
func (a *API) ListCandidatesHandler(c *gin.Context) {
	if a.source == nil {
		c.JSON(http.StatusOK, gin.H{"candidates": []spec.Candidate{}, "total": 0})
		return
	}

	candidates, err := catalog.Load(c.Request.Context(), a.source, c.Query("category"))
	if err != nil {
		SendError(c, http.StatusInternalServerError, ErrorCodeCandidateSourceFail, "Failed to load candidates: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"candidates": candidates, "total": len(candidates)})
}

func (a *API) ListHistoryHandler(c *gin.Context) {
	if a.history == nil {
		SendError(c, http.StatusNotFound, ErrorCodeHistoryDisabled, "Query history is not enabled")
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			SendError(c, http.StatusBadRequest, ErrorCodeInvalidArgument, "limit must be a positive integer",
				ErrorDetail{Field: "limit", Message: "got " + raw})
			return
		}
		limit = n
	}

	queries, err := a.history.RecentQueries(c.Request.Context(), limit)
	if err != nil {
		SendInternalError(c, "history lookup", err)
		return
	}
	if queries == nil {
		queries = []catalog.Query{}
	}

	c.JSON(http.StatusOK, gin.H{"queries": queries})
}

func (a *API) RecommendHandler(c *gin.Context) {
	var body RecommendRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	requirement, err := spec.DecodeRequirement(body.Requirements)
	if err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequirement, err.Error())
		return
	}

	req := recommender.Request{
		Requirement: requirement,
		Mode:        a.defaults.Mode,
		Top:         a.defaults.Top,
		Ignore:      body.Ignore,
		UseAI:       body.AI,

		ExcludeVendors: append(slices.Clone(a.defaults.ExcludeVendors), body.ExcludeVendors...),
		ExcludeParts:   append(slices.Clone(a.defaults.ExcludeParts), body.ExcludeParts...),
	}

	if strings.TrimSpace(body.Mode) != "" {
		if req.Mode, err = matching.ParseRankMode(body.Mode); err != nil {
			SendArgumentError(c, "recommendation", err)
			return
		}
	}
	if body.Top != nil {
		req.Top = *body.Top
	}

	if raw := bytes.TrimSpace(body.Candidates); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		var doc any
		candidateDec := json.NewDecoder(bytes.NewReader(raw))
		candidateDec.UseNumber()
		if err := candidateDec.Decode(&doc); err != nil {
			SendInvalidJSONError(c, err)
			return
		}
		if req.Candidates, err = spec.DecodeCandidates(doc); err != nil {
			SendArgumentError(c, "recommendation", err)
			return
		}
	}

	resp, err := a.service.Recommend(c.Request.Context(), requestID(c), req)
	if err != nil {
		if errors.Is(err, spec.ErrInvalidArgument) {
			SendArgumentError(c, "recommendation", err)
			return
		}
		SendError(c, http.StatusInternalServerError, ErrorCodeCandidateSourceFail, err.Error())
		return
	}

	c.JSON(http.StatusOK, resp)
}
