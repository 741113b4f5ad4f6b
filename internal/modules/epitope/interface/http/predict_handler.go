package http

import (
	epitopeRequest "EpiPredict/internal/modules/epitope/application/dto/request"
	"EpiPredict/internal/modules/epitope/application/service"
	"EpiPredict/pkg/back"
	"EpiPredict/pkg/xerr"
	"EpiPredict/pkg/zlog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PredictHandler 表位预测 HTTP Handler
type PredictHandler struct {
	svc service.PredictService
}

// NewPredictHandler 创建表位预测 Handler
func NewPredictHandler(svc service.PredictService) *PredictHandler {
	return &PredictHandler{svc: svc}
}

// Predict 处理预测请求
//
// 路由: POST /predict
// 请求体: PredictRequest
// 响应体: SingleRespond | SlidingRespond
func (h *PredictHandler) Predict(c *gin.Context) {
	var req epitopeRequest.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Warn("bind predict request failed", zap.Error(err), zap.String("request_id", c.GetString("request_id")))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.Predict(c.Request.Context(), req)
	back.Result(c, data, err)
}

// Health 健康检查
//
// 路由: GET /health
// 模型未加载时返回 degraded，但状态码保持 200，避免编排系统反复重启实例
func (h *PredictHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Health())
}

// CacheStats 预测缓存统计
//
// 路由: GET /cache/stats
func (h *PredictHandler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.CacheStats())
}
