package geostream

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

// Feature is one decoded record: a geometry, its properties, and the
// spatial reference inherited from the stream header. Features are value
// data; derived encodings are computed on demand rather than cached.
type Feature struct {
	Geometry   orb.Geometry
	Properties geojson.Properties
	SRID       int32
}

// NewFeature builds a feature in the default spatial reference.
func NewFeature(geometry orb.Geometry, properties geojson.Properties) *Feature {
	return &Feature{
		Geometry:   geometry,
		Properties: propertiesOrEmpty(properties),
		SRID:       DefaultSRID,
	}
}

// FeatureFromGeoJSON adapts a geojson.Feature for writing.
func FeatureFromGeoJSON(f *geojson.Feature, srid int32) *Feature {
	return &Feature{
		Geometry:   f.Geometry,
		Properties: propertiesOrEmpty(f.Properties),
		SRID:       srid,
	}
}

// GeoJSON returns the feature as a geojson.Feature.
func (f *Feature) GeoJSON() *geojson.Feature {
	gf := geojson.NewFeature(f.Geometry)
	gf.Properties = propertiesOrEmpty(f.Properties)
	return gf
}

// WKB returns the well-known binary encoding of the geometry.
func (f *Feature) WKB() ([]byte, error) {
	return wkb.Marshal(f.Geometry)
}

// WKT returns the well-known text encoding of the geometry.
func (f *Feature) WKT() string {
	return wkt.MarshalString(f.Geometry)
}

// EWKB returns the extended WKB encoding, embedding the feature's SRID.
func (f *Feature) EWKB() ([]byte, error) {
	return ewkb.Marshal(f.Geometry, int(f.SRID))
}

// EWKT returns the extended WKT encoding, prefixed with the feature's SRID.
func (f *Feature) EWKT() string {
	return fmt.Sprintf("SRID=%d;%s", f.SRID, wkt.MarshalString(f.Geometry))
}

func (f *Feature) MarshalJSON() ([]byte, error) {
	return f.GeoJSON().MarshalJSON()
}

// FeatureCollection is a batch of features sharing one spatial reference.
// It has no on-disk representation of its own; writing one flattens it into
// independent record envelopes. It marshals to a GeoJSON FeatureCollection
// document with a crs block.
type FeatureCollection struct {
	Features   []*Feature
	Properties map[string]interface{}
	SRID       int32
}

// NewFeatureCollection builds a collection in the default spatial reference.
func NewFeatureCollection(features ...*Feature) *FeatureCollection {
	return &FeatureCollection{Features: features, SRID: DefaultSRID}
}

func (fc *FeatureCollection) MarshalJSON() ([]byte, error) {
	features := fc.Features
	if features == nil {
		features = []*Feature{}
	}
	return json.Marshal(struct {
		Type       string                 `json:"type"`
		CRS        map[string]interface{} `json:"crs"`
		Features   []*Feature             `json:"features"`
		Properties map[string]interface{} `json:"properties,omitempty"`
	}{
		Type:       "FeatureCollection",
		CRS:        CRS(fc.SRID),
		Features:   features,
		Properties: fc.Properties,
	})
}

// CRS returns the GeoJSON coordinate reference system block for an EPSG
// spatial reference id.
func CRS(srid int32) map[string]interface{} {
	return map[string]interface{}{
		"type": "name",
		"properties": map[string]interface{}{
			"name": fmt.Sprintf("EPSG:%d", srid),
		},
	}
}

func propertiesOrEmpty(p geojson.Properties) geojson.Properties {
	if p == nil {
		return geojson.Properties{}
	}
	return p
}
