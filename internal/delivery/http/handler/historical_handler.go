package handler

import (
	"net/http"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/service"
	"github.com/gin-gonic/gin"
)

type HistoricalHandler struct {
	historicalService service.HistoricalService
}

func NewHistoricalHandler(hs service.HistoricalService) *HistoricalHandler {
	return &HistoricalHandler{historicalService: hs}
}

type createHistoricalRequest struct {
	Year          int             `json:"year" binding:"required"`
	AlertLevel    int             `json:"alert_level" binding:"min=0,max=3"`
	ImpactSummary string          `json:"impact_summary"`
	Geometry      geometryRequest `json:"reference_geom"`
}

func (h *HistoricalHandler) Create(c *gin.Context) {
	var req createHistoricalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	data, err := h.historicalService.CreateHistorical(c.Request.Context(), entity.HistoricalDraft{
		Year:          req.Year,
		AlertLevel:    req.AlertLevel,
		ImpactSummary: req.ImpactSummary,
		Geometry:      req.Geometry.input(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "historical data created", data)
}

func (h *HistoricalHandler) List(c *gin.Context) {
	var filter entity.HistoricalFilter
	var err error
	for key, dst := range map[string]*int{
		"year":        &filter.Year,
		"alert_level": &filter.AlertLevel,
		"from_year":   &filter.FromYear,
		"to_year":     &filter.ToYear,
	} {
		if *dst, _, err = queryInt(c, key); err != nil {
			respondError(c, err)
			return
		}
	}

	records, err := h.historicalService.ListHistorical(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, records)
}

func (h *HistoricalHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "HistoricalData")
	if !ok {
		return
	}
	data, err := h.historicalService.GetHistorical(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, data)
}

func (h *HistoricalHandler) Containing(c *gin.Context) {
	p, err := queryPoint(c)
	if err != nil {
		respondError(c, err)
		return
	}
	records, err := h.historicalService.FindContaining(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, records)
}

func (h *HistoricalHandler) InBounds(c *gin.Context) {
	box, err := queryBox(c)
	if err != nil {
		respondError(c, err)
		return
	}
	records, err := h.historicalService.FindIntersecting(c.Request.Context(), box)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, records)
}

func (h *HistoricalHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "HistoricalData")
	if !ok {
		return
	}
	var patch entity.HistoricalPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	data, err := h.historicalService.UpdateHistorical(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "historical data updated", data)
}

func (h *HistoricalHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "HistoricalData")
	if !ok {
		return
	}
	if err := h.historicalService.DeleteHistorical(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "historical data deleted", nil)
}
