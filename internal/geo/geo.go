// Package geo validates coordinates and converts client geometries into the
// WKT the database expects.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/golang/geo/s2"
	geojson "github.com/paulmach/go.geojson"
	"github.com/uber/h3-go/v4"
)

const (
	// CellResolution is the H3 resolution stored with each report (~66m edge).
	CellResolution = 10

	DefaultRadiusMeters = 1000.0
	MaxRadiusMeters     = 100000.0
)

var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrInvalidPolygon    = errors.New("invalid polygon")
)

// ValidatePoint rejects NaN and out of range longitude/latitude values.
func ValidatePoint(p entity.Point) error {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return fmt.Errorf("%w: NaN", ErrInvalidCoordinate)
	}
	if !s2.LatLngFromDegrees(p.Latitude, p.Longitude).IsValid() {
		return fmt.Errorf("%w: longitude %v latitude %v", ErrInvalidCoordinate, p.Longitude, p.Latitude)
	}
	return nil
}

// NewBoundingBox validates both corners and their ordering.
func NewBoundingBox(minLon, minLat, maxLon, maxLat float64) (entity.BoundingBox, error) {
	box := entity.BoundingBox{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat}
	if err := ValidatePoint(entity.Point{Longitude: minLon, Latitude: minLat}); err != nil {
		return box, err
	}
	if err := ValidatePoint(entity.Point{Longitude: maxLon, Latitude: maxLat}); err != nil {
		return box, err
	}
	if minLon >= maxLon || minLat >= maxLat {
		return box, fmt.Errorf("%w: min corner must be south-west of max corner", ErrInvalidCoordinate)
	}
	return box, nil
}

func ValidateRadius(meters float64) error {
	if math.IsNaN(meters) || meters <= 0 || meters > MaxRadiusMeters {
		return fmt.Errorf("radius must be in (0, %.0f] meters", MaxRadiusMeters)
	}
	return nil
}

// CellFor returns the H3 cell containing p at CellResolution.
func CellFor(p entity.Point) string {
	return h3.LatLngToCell(h3.NewLatLng(p.Latitude, p.Longitude), CellResolution).String()
}

func ValidCell(s string) bool {
	return h3.Cell(h3.IndexFromString(s)).IsValid()
}

// PolygonWKT returns the polygon described by input as WKT. GeoJSON input may
// be a bare Polygon geometry or a Feature wrapping one. WKT input is only
// checked superficially; the database has the final say.
func PolygonWKT(input entity.GeometryInput) (string, error) {
	if len(input.GeoJSON) > 0 {
		return geoJSONPolygonWKT(input.GeoJSON)
	}
	wkt := strings.TrimSpace(input.WKT)
	if !strings.HasPrefix(strings.ToUpper(wkt), "POLYGON") {
		return "", fmt.Errorf("%w: expected POLYGON WKT", ErrInvalidPolygon)
	}
	return wkt, nil
}

func geoJSONPolygonWKT(raw []byte) (string, error) {
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil || g.Type == "Feature" {
		f, ferr := geojson.UnmarshalFeature(raw)
		if ferr != nil || f.Geometry == nil {
			return "", fmt.Errorf("%w: unreadable GeoJSON", ErrInvalidPolygon)
		}
		g = f.Geometry
	}
	if !g.IsPolygon() {
		return "", fmt.Errorf("%w: expected Polygon, got %s", ErrInvalidPolygon, g.Type)
	}
	if len(g.Polygon) == 0 {
		return "", fmt.Errorf("%w: polygon has no rings", ErrInvalidPolygon)
	}

	rings := make([]string, 0, len(g.Polygon))
	for i, ring := range g.Polygon {
		if len(ring) < 4 {
			return "", fmt.Errorf("%w: ring %d needs at least 4 positions", ErrInvalidPolygon, i)
		}
		first, last := ring[0], ring[len(ring)-1]
		if len(first) < 2 || len(last) < 2 || first[0] != last[0] || first[1] != last[1] {
			return "", fmt.Errorf("%w: ring %d is not closed", ErrInvalidPolygon, i)
		}
		coords := make([]string, 0, len(ring))
		for _, pos := range ring {
			if len(pos) < 2 {
				return "", fmt.Errorf("%w: ring %d has a short position", ErrInvalidPolygon, i)
			}
			if err := ValidatePoint(entity.Point{Longitude: pos[0], Latitude: pos[1]}); err != nil {
				return "", err
			}
			coords = append(coords, formatCoord(pos[0])+" "+formatCoord(pos[1]))
		}
		rings = append(rings, "("+strings.Join(coords, ",")+")")
	}
	return "POLYGON(" + strings.Join(rings, ",") + ")", nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
