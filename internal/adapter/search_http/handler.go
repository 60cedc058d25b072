package search_http

import (
	"errors"
	"net/http"
	"time"

	"retrieval-orchestrator/internal/domain"
	"retrieval-orchestrator/internal/usecase"

	"github.com/labstack/echo/v4"
)

// statusClientClosedRequest mirrors nginx's non-standard code for a client
// that went away before the response was ready.
const statusClientClosedRequest = 499

// ModelInspector exposes the rerank model's lifecycle state for the info
// endpoint without giving the handler scoring access.
type ModelInspector interface {
	State() domain.ModelState
	ModelName() string
	Metrics() (calls int64, total time.Duration)
}

type Handler struct {
	search usecase.SearchUsecase
	model  ModelInspector // nil when reranking is disabled at deploy time
	cfg    usecase.SearchConfig
}

func NewHandler(search usecase.SearchUsecase, model ModelInspector, cfg usecase.SearchConfig) *Handler {
	return &Handler{
		search: search,
		model:  model,
		cfg:    cfg,
	}
}

// Register mounts the search routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/v1/search", h.Search)
	e.GET("/v1/search/info", h.Info)
}

type branchWeights struct {
	Keyword *float64 `json:"keyword,omitempty"`
	Vector  *float64 `json:"vector,omitempty"`
}

type searchRequest struct {
	Query            string         `json:"query"`
	ExpectedLanguage *string        `json:"expected_language,omitempty"`
	ValidateLanguage *bool          `json:"validate_language,omitempty"`
	InitialLimit     *int           `json:"initial_limit,omitempty"`
	BranchWeights    *branchWeights `json:"branch_weights,omitempty"`
	EnableRerank     *bool          `json:"enable_rerank,omitempty"`
	RerankTopN       *int           `json:"rerank_top_n,omitempty"`
	RerankThreshold  *float64       `json:"rerank_threshold,omitempty"`
	IncludeScores    bool           `json:"include_scores,omitempty"`
	FilterTags       []string       `json:"filter_tags,omitempty"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Search executes a two-stage hybrid search.
// (POST /v1/search)
func (h *Handler) Search(ctx echo.Context) error {
	var req searchRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorBody{Error: errorDetail{
			Kind:    domain.KindInvalidRequest,
			Message: "invalid request body",
		}})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, errorBody{Error: errorDetail{
			Kind:    domain.KindInvalidRequest,
			Message: "query is required",
		}})
	}

	input := h.buildInput(req)
	if input.InitialLimit <= 0 || input.RerankTopN <= 0 {
		return ctx.JSON(http.StatusBadRequest, errorBody{Error: errorDetail{
			Kind:    domain.KindInvalidRequest,
			Message: "limits must be positive",
		}})
	}

	output, err := h.search.Execute(ctx.Request().Context(), input)
	if err != nil {
		return h.writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, output)
}

// buildInput resolves request fields against the configured defaults.
func (h *Handler) buildInput(req searchRequest) usecase.SearchInput {
	input := usecase.SearchInput{
		Query:            req.Query,
		ExpectedLanguage: h.cfg.DefaultLanguage,
		ValidateLanguage: h.cfg.ValidateLanguage,
		InitialLimit:     h.cfg.InitialLimit,
		WeightKeyword:    h.cfg.Fusion.WeightKeyword,
		WeightVector:     h.cfg.Fusion.WeightVector,
		EnableRerank:     h.cfg.Rerank.Enabled,
		RerankTopN:       h.cfg.Rerank.TopN,
		RerankThreshold:  h.cfg.Rerank.Threshold,
		IncludeScores:    req.IncludeScores,
		FilterTags:       req.FilterTags,
	}
	if req.ExpectedLanguage != nil {
		input.ExpectedLanguage = *req.ExpectedLanguage
	}
	if req.ValidateLanguage != nil {
		input.ValidateLanguage = *req.ValidateLanguage
	}
	if req.InitialLimit != nil {
		input.InitialLimit = *req.InitialLimit
	}
	if req.BranchWeights != nil {
		if req.BranchWeights.Keyword != nil {
			input.WeightKeyword = *req.BranchWeights.Keyword
		}
		if req.BranchWeights.Vector != nil {
			input.WeightVector = *req.BranchWeights.Vector
		}
	}
	if req.EnableRerank != nil {
		input.EnableRerank = *req.EnableRerank
	}
	if req.RerankTopN != nil {
		input.RerankTopN = *req.RerankTopN
	}
	if req.RerankThreshold != nil {
		input.RerankThreshold = *req.RerankThreshold
	}
	return input
}

func (h *Handler) writeError(ctx echo.Context, err error) error {
	kind := domain.ErrorKind(err)
	detail := errorDetail{Kind: kind, Message: err.Error()}

	var status int
	switch kind {
	case domain.KindLanguageMismatch:
		status = http.StatusUnprocessableEntity
		var lm *domain.LanguageMismatchError
		if errors.As(err, &lm) {
			detail.Hint = lm.Hint()
		}
	case domain.KindInvalidRequest:
		status = http.StatusBadRequest
	case domain.KindRetrievalBackend:
		status = http.StatusBadGateway
	case domain.KindRerankerUnavailable:
		status = http.StatusServiceUnavailable
	case domain.KindTimeout:
		status = http.StatusGatewayTimeout
	case domain.KindCancelled:
		status = statusClientClosedRequest
	default:
		status = http.StatusInternalServerError
	}
	return ctx.JSON(status, errorBody{Error: detail})
}

type infoResponse struct {
	RerankEnabled    bool    `json:"rerank_enabled"`
	ModelState       string  `json:"model_state"`
	ModelName        string  `json:"model_name,omitempty"`
	ScoreCalls       int64   `json:"score_calls"`
	AvgScoreMs       float64 `json:"avg_score_ms"`
	InitialLimit     int     `json:"initial_limit"`
	WeightKeyword    float64 `json:"weight_keyword"`
	WeightVector     float64 `json:"weight_vector"`
	RerankTopN       int     `json:"rerank_top_n"`
	DefaultLanguage  string  `json:"default_language"`
	ValidateLanguage bool    `json:"validate_language"`
}

// Info reports the rerank model state and the active pipeline defaults.
// (GET /v1/search/info)
func (h *Handler) Info(ctx echo.Context) error {
	resp := infoResponse{
		RerankEnabled:    h.cfg.Rerank.Enabled && h.model != nil,
		ModelState:       string(domain.ModelUnloaded),
		InitialLimit:     h.cfg.InitialLimit,
		WeightKeyword:    h.cfg.Fusion.WeightKeyword,
		WeightVector:     h.cfg.Fusion.WeightVector,
		RerankTopN:       h.cfg.Rerank.TopN,
		DefaultLanguage:  h.cfg.DefaultLanguage,
		ValidateLanguage: h.cfg.ValidateLanguage,
	}
	if h.model != nil {
		resp.ModelState = string(h.model.State())
		resp.ModelName = h.model.ModelName()
		calls, total := h.model.Metrics()
		resp.ScoreCalls = calls
		if calls > 0 {
			resp.AvgScoreMs = float64(total.Milliseconds()) / float64(calls)
		}
	}
	return ctx.JSON(http.StatusOK, resp)
}
