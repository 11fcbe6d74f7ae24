package handler

import (
	"net/http"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/service"
	"github.com/gin-gonic/gin"
	"gopkg.in/guregu/null.v3"
)

type LocationHandler struct {
	locationService service.LocationService
}

func NewLocationHandler(ls service.LocationService) *LocationHandler {
	return &LocationHandler{locationService: ls}
}

type createLocationRequest struct {
	Address       string   `json:"address" binding:"max=500"`
	Longitude     float64  `json:"longitude" binding:"longitude"`
	Latitude      float64  `json:"latitude" binding:"latitude"`
	LocationType  string   `json:"location_type" binding:"required,max=64"`
	BaseElevation *float64 `json:"base_elevation"`
}

func (h *LocationHandler) Create(c *gin.Context) {
	var req createLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	location, err := h.locationService.CreateLocation(c.Request.Context(), entity.LocationDraft{
		Address:       req.Address,
		Point:         entity.Point{Longitude: req.Longitude, Latitude: req.Latitude},
		LocationType:  req.LocationType,
		BaseElevation: null.FloatFromPtr(req.BaseElevation),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "location created", location)
}

func (h *LocationHandler) List(c *gin.Context) {
	locations, err := h.locationService.ListLocations(c.Request.Context(), c.Query("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, locations)
}

func (h *LocationHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "Location")
	if !ok {
		return
	}
	location, err := h.locationService.GetLocation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, location)
}

func (h *LocationHandler) Nearby(c *gin.Context) {
	center, err := queryPoint(c)
	if err != nil {
		respondError(c, err)
		return
	}
	radius, err := queryFloat(c, "radius", false)
	if err != nil {
		respondError(c, err)
		return
	}
	locations, err := h.locationService.FindWithinRadius(c.Request.Context(), center, radius)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, locations)
}

func (h *LocationHandler) Nearest(c *gin.Context) {
	p, err := queryPoint(c)
	if err != nil {
		respondError(c, err)
		return
	}
	limit, _, err := queryInt(c, "limit")
	if err != nil {
		respondError(c, err)
		return
	}
	locations, err := h.locationService.FindNearest(c.Request.Context(), p, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, locations)
}

func (h *LocationHandler) InBounds(c *gin.Context) {
	box, err := queryBox(c)
	if err != nil {
		respondError(c, err)
		return
	}
	locations, err := h.locationService.FindInBoundingBox(c.Request.Context(), box)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, locations)
}

func (h *LocationHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "Location")
	if !ok {
		return
	}
	var patch entity.LocationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	location, err := h.locationService.UpdateLocation(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "location updated", location)
}

func (h *LocationHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "Location")
	if !ok {
		return
	}
	if err := h.locationService.DeleteLocation(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "location deleted", nil)
}
