package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kubo-market/batch-dashboard/internal/anomaly"
	"github.com/kubo-market/batch-dashboard/internal/domain"
)

// CheckRecorder counts checks made through the API.
type CheckRecorder interface {
	RowsChecked(scope string, n int)
	AnomaliesFlagged(scope string, n int)
}

type checkRequest struct {
	Batch    anomaly.Observation     `json:"batch"`
	Baseline *domain.ProductBaseline `json:"baseline"`
}

// AnomalyHandler re-runs the batch detector for clients.
type AnomalyHandler struct {
	recorder CheckRecorder
}

// NewAnomalyHandler creates a new AnomalyHandler. recorder may be nil.
func NewAnomalyHandler(recorder CheckRecorder) *AnomalyHandler {
	return &AnomalyHandler{recorder: recorder}
}

// Check handles POST /api/anomaly/check
func (h *AnomalyHandler) Check(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResp{Error: "invalid request body"})
		return
	}

	res := anomaly.Batch(req.Batch, req.Baseline)
	if h.recorder != nil {
		h.recorder.RowsChecked("api", 1)
		if res.IsAbnormal {
			h.recorder.AnomaliesFlagged("api", 1)
		}
	}
	c.JSON(http.StatusOK, res)
}
