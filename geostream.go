// Package geostream reads and writes the geostream (.gjz) container format:
// a fixed header followed by length-framed, independently compressed
// geospatial feature records. Every record carries its length both before
// and after the payload, so a stream can be iterated forward or backward
// from its end without an index. Writers only ever append, which lets
// several invocations grow one file as long as each reuses the header
// already on disk.
package geostream

import (
	"errors"
	"fmt"
	"io"
)

// Common errors returned by this package.
var (
	ErrUnsupportedVersion  = errors.New("geostream: unsupported schema version")
	ErrVersionMismatch     = errors.New("geostream: schema version mismatch")
	ErrUnsupportedGeometry = errors.New("geostream: unsupported geometry type")
	ErrInvalidHeader       = errors.New("geostream: invalid header")
)

// Schema generations. Each pairs a serialization with a compressor; the
// header's version byte selects which one a stream uses.
const (
	// SchemaV3 encodes features as gzip-compressed GeoJSON text.
	SchemaV3 = 3
	// SchemaV4 encodes features as zlib-compressed msgpack with WKB geometry.
	SchemaV4 = 4
	// CurrentSchema is the generation new writers use by default.
	CurrentSchema = SchemaV4
)

// DefaultSRID is the spatial reference applied when none is given (WGS84).
const DefaultSRID int32 = 4326

// DefaultBufferSize is the chunk size the reverse reader grows its window by.
const DefaultBufferSize = 8192

// ReaderOptions configures NewReader.
type ReaderOptions struct {
	Reverse    bool // iterate from the end of the stream toward the header
	BufferSize int  // reverse reader chunk size (default DefaultBufferSize)
	Version    int  // require this schema generation; 0 accepts any supported one
}

// DefaultReaderOptions returns options for a forward read of any supported
// generation.
func DefaultReaderOptions() *ReaderOptions {
	return &ReaderOptions{BufferSize: DefaultBufferSize}
}

// Reader iterates the features of a geostream and exposes the decoded
// header. Next advances to the next feature, returning false at the end of
// the stream or on error; Err reports the error, if any, once iteration has
// stopped. A truncated trailing record ends iteration without an error.
// Readers are single-pass and not restartable.
type Reader interface {
	SchemaVersion() int
	SRID() int32
	Attributes() map[string]interface{}
	Next() bool
	Feature() *Feature
	Err() error
}

// NewReader reads and validates the stream header, then returns a forward
// or reverse Reader bound to the header's schema generation. The stream
// must be positioned anywhere; the header is always read from offset 0.
func NewReader(rs io.ReadSeeker, opts *ReaderOptions) (Reader, error) {
	if opts == nil {
		opts = DefaultReaderOptions()
	}

	header, err := readHeader(rs)
	if err != nil {
		return nil, err
	}
	if opts.Version != 0 && opts.Version != int(header.Version) {
		return nil, fmt.Errorf("%w: stream is version %d, requested %d",
			ErrVersionMismatch, header.Version, opts.Version)
	}

	codec := codecForVersion(header.Version)
	attrs, err := readAttributes(rs, header, codec)
	if err != nil {
		return nil, err
	}

	if opts.Reverse {
		return newReverseReader(rs, header, attrs, codec, opts.BufferSize)
	}
	return newForwardReader(rs, header, attrs, codec), nil
}

// readAttributes consumes the optional header attribute block, leaving the
// stream positioned at the first record envelope.
func readAttributes(r io.Reader, h Header, codec payloadCodec) (map[string]interface{}, error) {
	if h.AttrsLen == 0 {
		return nil, nil
	}
	buf := make([]byte, h.AttrsLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: short attribute block: %v", ErrInvalidHeader, err)
	}
	return codec.decodeAttributes(buf)
}

// streamInfo carries the decoded header state shared by both readers.
type streamInfo struct {
	header Header
	attrs  map[string]interface{}
}

func (s *streamInfo) SchemaVersion() int { return int(s.header.Version) }

func (s *streamInfo) SRID() int32 { return s.header.SRID }

func (s *streamInfo) Attributes() map[string]interface{} { return s.attrs }
