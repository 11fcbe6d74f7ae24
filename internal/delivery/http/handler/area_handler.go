package handler

import (
	"encoding/json"
	"net/http"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/service"
	"github.com/gin-gonic/gin"
	"gopkg.in/guregu/null.v3"
)

type AreaHandler struct {
	areaService service.AreaService
}

func NewAreaHandler(as service.AreaService) *AreaHandler {
	return &AreaHandler{areaService: as}
}

// geometryRequest accepts either "wkt" or "geojson".
type geometryRequest struct {
	WKT     string          `json:"wkt" binding:"omitempty,wkt_polygon"`
	GeoJSON json.RawMessage `json:"geojson"`
}

func (g geometryRequest) input() entity.GeometryInput {
	return entity.GeometryInput{WKT: g.WKT, GeoJSON: g.GeoJSON}
}

type createAreaRequest struct {
	EventID             string          `json:"event_id" binding:"required,uuid"`
	AreaName            string          `json:"area_name" binding:"required,max=255"`
	Geometry            geometryRequest `json:"geometry"`
	RiskLevel           int             `json:"risk_level" binding:"required,min=1,max=5"`
	EstimatedHouseholds *int64          `json:"estimated_households" binding:"omitempty,min=0"`
}

func (h *AreaHandler) Create(c *gin.Context) {
	var req createAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	area, err := h.areaService.CreateArea(c.Request.Context(), entity.AreaDraft{
		EventID:             req.EventID,
		AreaName:            req.AreaName,
		Geometry:            req.Geometry.input(),
		RiskLevel:           req.RiskLevel,
		EstimatedHouseholds: null.IntFromPtr(req.EstimatedHouseholds),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "area created", area)
}

func (h *AreaHandler) List(c *gin.Context) {
	var filter entity.AreaFilter
	var err error
	if filter.EventID, err = queryID(c, "event_id"); err != nil {
		respondError(c, err)
		return
	}
	if filter.MinRiskLevel, _, err = queryInt(c, "min_risk_level"); err != nil {
		respondError(c, err)
		return
	}
	areas, err := h.areaService.ListAreas(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, areas)
}

func (h *AreaHandler) ByEvent(c *gin.Context) {
	eventID, ok := pathID(c, "eventId", "DamageEvent")
	if !ok {
		return
	}
	areas, err := h.areaService.ListAreas(c.Request.Context(), entity.AreaFilter{EventID: eventID})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, areas)
}

func (h *AreaHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "DamageArea")
	if !ok {
		return
	}
	area, err := h.areaService.GetArea(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, area)
}

func (h *AreaHandler) Containing(c *gin.Context) {
	p, err := queryPoint(c)
	if err != nil {
		respondError(c, err)
		return
	}
	areas, err := h.areaService.FindContaining(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, areas)
}

func (h *AreaHandler) InBounds(c *gin.Context) {
	box, err := queryBox(c)
	if err != nil {
		respondError(c, err)
		return
	}
	areas, err := h.areaService.FindIntersecting(c.Request.Context(), box)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, areas)
}

func (h *AreaHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "DamageArea")
	if !ok {
		return
	}
	var patch entity.AreaPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	area, err := h.areaService.UpdateArea(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "area updated", area)
}

func (h *AreaHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "DamageArea")
	if !ok {
		return
	}
	if err := h.areaService.DeleteArea(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "area deleted", nil)
}
