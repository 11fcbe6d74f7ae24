package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/apperr"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/geo"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// pathID reads a UUID path parameter. A value that cannot be an id cannot
// resolve either, so the caller gets a NotFound response and ok is false.
func pathID(c *gin.Context, param, kind string) (string, bool) {
	id := c.Param(param)
	if _, err := uuid.Parse(id); err != nil {
		respondError(c, apperr.NotFound(kind, id))
		return "", false
	}
	return id, true
}

// queryID reads an optional UUID filter parameter.
func queryID(c *gin.Context, key string) (string, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return "", nil
	}
	if _, err := uuid.Parse(raw); err != nil {
		return "", apperr.InvalidArgument("query parameter %s must be a UUID", key)
	}
	return raw, nil
}

func queryFloat(c *gin.Context, key string, required bool) (float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		if required {
			return 0, apperr.InvalidArgument("query parameter %s is required", key)
		}
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperr.InvalidArgument("query parameter %s must be a number", key)
	}
	return v, nil
}

func queryInt(c *gin.Context, key string) (int, bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, apperr.InvalidArgument("query parameter %s must be an integer", key)
	}
	return v, true, nil
}

func queryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperr.InvalidArgument("query parameter %s must be an RFC 3339 timestamp", key)
	}
	return &t, nil
}

// queryPoint reads the lon and lat parameters.
func queryPoint(c *gin.Context) (entity.Point, error) {
	lon, err := queryFloat(c, "lon", true)
	if err != nil {
		return entity.Point{}, err
	}
	lat, err := queryFloat(c, "lat", true)
	if err != nil {
		return entity.Point{}, err
	}
	p := entity.Point{Longitude: lon, Latitude: lat}
	if err := geo.ValidatePoint(p); err != nil {
		return entity.Point{}, apperr.InvalidArgument("%s", err.Error())
	}
	return p, nil
}

// queryBox reads min_lon, min_lat, max_lon and max_lat.
func queryBox(c *gin.Context) (entity.BoundingBox, error) {
	var v [4]float64
	for i, key := range []string{"min_lon", "min_lat", "max_lon", "max_lat"} {
		f, err := queryFloat(c, key, true)
		if err != nil {
			return entity.BoundingBox{}, err
		}
		v[i] = f
	}
	box, err := geo.NewBoundingBox(v[0], v[1], v[2], v[3])
	if err != nil {
		return entity.BoundingBox{}, apperr.InvalidArgument("%s", err.Error())
	}
	return box, nil
}
