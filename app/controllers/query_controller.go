package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/policygenius/backend-go/app/bootstrap"
	apperrors "github.com/policygenius/backend-go/internal/errors"
	"github.com/policygenius/backend-go/internal/knowledge"
	"github.com/policygenius/backend-go/internal/logger"
	"github.com/policygenius/backend-go/internal/metrics"
)

var validate = validator.New()

// queryService 从全局App取问答服务，未初始化时返回nil
func queryService() *knowledge.QueryService {
	if app := bootstrap.GetApp(); app != nil {
		return app.QueryService()
	}
	return nil
}

// RunRequest /hackrx/run 请求体
type RunRequest struct {
	Documents string   `json:"documents" validate:"required,url"`
	Questions []string `json:"questions" validate:"required,min=1,dive,required"`
}

// SourceChunk 响应中引用的检索片段
type SourceChunk struct {
	ID     int     `json:"id"`
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// RunResponse /hackrx/run 响应体，回答顺序与问题顺序一一对应
type RunResponse struct {
	Answers        []string      `json:"answers"`
	ProcessingTime float64       `json:"processing_time"`
	SourceChunks   []SourceChunk `json:"source_chunks"`
}

// QueryController 文档问答控制器
type QueryController struct {
	BaseController
}

// Run 处理一份文档上的一批问题
func (c *QueryController) Run() {
	var req RunRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		metrics.QueryRequests.WithLabelValues("bad_request").Inc()
		c.JSONError(http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if err := validate.Struct(&req); err != nil {
		metrics.QueryRequests.WithLabelValues("bad_request").Inc()
		c.JSONError(http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	svc := queryService()
	if svc == nil {
		metrics.QueryRequests.WithLabelValues("error").Inc()
		c.JSONError(http.StatusInternalServerError, "Service not initialized")
		return
	}

	result, err := svc.Process(c.Ctx.Request.Context(), req.Documents, req.Questions)
	if err != nil {
		appErr := apperrors.GetAppError(err)
		logger.Error("查询处理失败",
			zap.String("code", string(appErr.Code)),
			zap.Error(err))
		metrics.QueryRequests.WithLabelValues("error").Inc()
		c.JSONError(appErr.HTTPCode, appErr.Message)
		return
	}

	metrics.QueryRequests.WithLabelValues("ok").Inc()
	metrics.QueryDuration.Observe(result.ProcessingTime)

	sources := make([]SourceChunk, 0, len(result.SourceChunks))
	for _, r := range result.SourceChunks {
		sources = append(sources, SourceChunk{
			ID:     r.Chunk.ID,
			Text:   r.Chunk.Text,
			Source: r.Chunk.Source,
			Score:  r.Score,
		})
	}

	c.JSON(http.StatusOK, RunResponse{
		Answers:        result.Answers,
		ProcessingTime: result.ProcessingTime,
		SourceChunks:   sources,
	})
}
