package geostream

import (
	"fmt"

	"github.com/paulmach/orb"
)

// payloadCodec converts features and the header attribute block to and from
// their compressed on-disk encoding. One implementation exists per schema
// generation; the framing around the payloads never changes between
// generations.
type payloadCodec interface {
	schemaVersion() uint8

	// encodeAttributes returns nil for nil attributes; the header then
	// records a zero-length attribute block.
	encodeAttributes(attrs map[string]interface{}) ([]byte, error)
	decodeAttributes(data []byte) (map[string]interface{}, error)

	encodeFeature(f *Feature) ([]byte, error)
	decodeFeature(data []byte, srid int32) (*Feature, error)
}

// codecForVersion returns the codec for a schema generation, or nil if the
// generation is unknown.
func codecForVersion(version uint8) payloadCodec {
	switch version {
	case SchemaV3:
		return codecV3{}
	case SchemaV4:
		return codecV4{}
	}
	return nil
}

func supportedVersions() []int {
	return []int{SchemaV3, SchemaV4}
}

// validateGeometry restricts payloads to the six geometry kinds the format
// supports. orb's Ring, Bound and Collection types have no representation
// in a geostream.
func validateGeometry(g orb.Geometry) error {
	switch g.(type) {
	case orb.Point, orb.MultiPoint, orb.LineString, orb.MultiLineString,
		orb.Polygon, orb.MultiPolygon:
		return nil
	case nil:
		return fmt.Errorf("%w: nil geometry", ErrUnsupportedGeometry)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedGeometry, g)
	}
}
