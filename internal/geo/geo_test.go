package geo

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePoint(t *testing.T) {
	assert.NoError(t, ValidatePoint(entity.Point{Longitude: 105.85, Latitude: 21.03}))
	assert.NoError(t, ValidatePoint(entity.Point{Longitude: -179.5, Latitude: -89.5}))
	assert.ErrorIs(t, ValidatePoint(entity.Point{Longitude: 105, Latitude: 91}), ErrInvalidCoordinate)
	assert.ErrorIs(t, ValidatePoint(entity.Point{Longitude: 181, Latitude: 0}), ErrInvalidCoordinate)
	assert.ErrorIs(t, ValidatePoint(entity.Point{Longitude: math.NaN(), Latitude: 0}), ErrInvalidCoordinate)
}

func TestNewBoundingBox(t *testing.T) {
	box, err := NewBoundingBox(105, 20, 106, 22)
	require.NoError(t, err)
	assert.Equal(t, entity.BoundingBox{MinLon: 105, MinLat: 20, MaxLon: 106, MaxLat: 22}, box)

	_, err = NewBoundingBox(106, 20, 105, 22)
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
	_, err = NewBoundingBox(105, 20, 106, 95)
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
}

func TestValidateRadius(t *testing.T) {
	assert.NoError(t, ValidateRadius(DefaultRadiusMeters))
	assert.NoError(t, ValidateRadius(MaxRadiusMeters))
	assert.Error(t, ValidateRadius(0))
	assert.Error(t, ValidateRadius(-5))
	assert.Error(t, ValidateRadius(MaxRadiusMeters+1))
}

func TestCellFor(t *testing.T) {
	cell := CellFor(entity.Point{Longitude: 105.85, Latitude: 21.03})
	assert.Len(t, cell, 15)
	assert.True(t, ValidCell(cell))
	assert.Equal(t, cell, CellFor(entity.Point{Longitude: 105.85, Latitude: 21.03}))
	assert.False(t, ValidCell("not-a-cell"))
}

func TestPolygonWKT_FromGeoJSON(t *testing.T) {
	raw := json.RawMessage(`{"type":"Polygon","coordinates":[[[105,21],[106,21],[106,22],[105,22],[105,21]]]}`)
	wkt, err := PolygonWKT(entity.GeometryInput{GeoJSON: raw})
	require.NoError(t, err)
	assert.Equal(t, "POLYGON((105 21,106 21,106 22,105 22,105 21))", wkt)
}

func TestPolygonWKT_FromFeature(t *testing.T) {
	raw := json.RawMessage(`{"type":"Feature","properties":{"name":"ward 3"},"geometry":{"type":"Polygon","coordinates":[[[105.5,21.25],[105.75,21.25],[105.75,21.5],[105.5,21.25]]]}}`)
	wkt, err := PolygonWKT(entity.GeometryInput{GeoJSON: raw})
	require.NoError(t, err)
	assert.Equal(t, "POLYGON((105.5 21.25,105.75 21.25,105.75 21.5,105.5 21.25))", wkt)
}

func TestPolygonWKT_Rejects(t *testing.T) {
	cases := map[string]entity.GeometryInput{
		"point geojson": {GeoJSON: json.RawMessage(`{"type":"Point","coordinates":[105,21]}`)},
		"open ring":     {GeoJSON: json.RawMessage(`{"type":"Polygon","coordinates":[[[105,21],[106,21],[106,22],[105,22]]]}`)},
		"short ring":    {GeoJSON: json.RawMessage(`{"type":"Polygon","coordinates":[[[105,21],[106,21],[105,21]]]}`)},
		"bad json":      {GeoJSON: json.RawMessage(`{"type":`)},
		"point wkt":     {WKT: "POINT(1 2)"},
		"empty":         {},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := PolygonWKT(input)
			assert.Error(t, err)
		})
	}
}

func TestPolygonWKT_PassesWKTThrough(t *testing.T) {
	wkt, err := PolygonWKT(entity.GeometryInput{WKT: "  polygon((0 0,1 0,1 1,0 0)) "})
	require.NoError(t, err)
	assert.Equal(t, "polygon((0 0,1 0,1 1,0 0))", wkt)
}
