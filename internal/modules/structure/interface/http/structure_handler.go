package http

import (
	structureRequest "EpiPredict/internal/modules/structure/application/dto/request"
	"EpiPredict/internal/modules/structure/application/service"
	"EpiPredict/pkg/back"
	"EpiPredict/pkg/xerr"
	"EpiPredict/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StructureHandler 结构预测代理 Handler
type StructureHandler struct {
	svc service.StructureService
}

func NewStructureHandler(svc service.StructureService) *StructureHandler {
	return &StructureHandler{svc: svc}
}

// Predict 路由: POST /api/predict-structure
func (h *StructureHandler) Predict(c *gin.Context) {
	var req structureRequest.StructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Warn("bind structure request failed", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.Predict(c.Request.Context(), req.Sequence)
	back.Result(c, data, err)
}
