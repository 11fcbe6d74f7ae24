package handler

import (
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/service"
	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	reportService service.ReportService
}

func NewStatsHandler(rs service.ReportService) *StatsHandler {
	return &StatsHandler{reportService: rs}
}

func (h *StatsHandler) countBy(c *gin.Context, field entity.GroupField) {
	counts, err := h.reportService.CountByField(c.Request.Context(), field)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, counts)
}

func (h *StatsHandler) ByEventType(c *gin.Context) {
	h.countBy(c, entity.GroupByEventType)
}

func (h *StatsHandler) ByStatus(c *gin.Context) {
	h.countBy(c, entity.GroupByStatus)
}

func (h *StatsHandler) TotalLoss(c *gin.Context) {
	eventID, ok := pathID(c, "eventId", "DamageEvent")
	if !ok {
		return
	}
	total, err := h.reportService.TotalEstimatedLossByEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"event_id": eventID, "total_estimated_loss": total})
}

// AssetSummary aggregates damaged assets by type across all reports.
func (h *StatsHandler) AssetSummary(c *gin.Context) {
	summary, err := h.reportService.SummarizeAssets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, summary)
}
