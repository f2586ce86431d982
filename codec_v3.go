package geostream

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/orb/geojson"
)

// codecV3 is the generation-3 payload encoding: features and header
// attributes as GeoJSON/JSON text, features compressed with gzip.
type codecV3 struct{}

func (codecV3) schemaVersion() uint8 { return SchemaV3 }

func (codecV3) encodeAttributes(attrs map[string]interface{}) ([]byte, error) {
	if attrs == nil {
		return nil, nil
	}
	return json.Marshal(attrs)
}

func (codecV3) decodeAttributes(data []byte) (map[string]interface{}, error) {
	var attrs map[string]interface{}
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

func (codecV3) encodeFeature(f *Feature) ([]byte, error) {
	if err := validateGeometry(f.Geometry); err != nil {
		return nil, err
	}

	doc, err := f.GeoJSON().MarshalJSON()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(doc); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (codecV3) decodeFeature(data []byte, srid int32) (*Feature, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	doc, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	if err := zr.Close(); err != nil {
		return nil, err
	}

	gf, err := geojson.UnmarshalFeature(doc)
	if err != nil {
		return nil, err
	}
	if err := validateGeometry(gf.Geometry); err != nil {
		return nil, err
	}
	return &Feature{
		Geometry:   gf.Geometry,
		Properties: propertiesOrEmpty(gf.Properties),
		SRID:       srid,
	}, nil
}
