package geostream

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/paulmach/orb/geojson"
)

// WriterOptions configures NewWriter.
type WriterOptions struct {
	SRID    int32 // spatial reference id recorded in the header (default DefaultSRID)
	Version int   // schema generation to encode with (default CurrentSchema)
}

// DefaultWriterOptions returns options for the current schema generation in
// the default spatial reference.
func DefaultWriterOptions() *WriterOptions {
	return &WriterOptions{SRID: DefaultSRID, Version: CurrentSchema}
}

// Writer appends compressed feature records to a stream. The header (and
// the attribute block, if attrs is non-nil) is written only when the stream
// is positioned at offset 0; attaching to a non-empty stream appends after
// the existing records and never rewrites anything, so repeated openings
// can grow one file incrementally. When the stream is also readable, an
// append verifies that the on-disk schema generation matches the writer's
// and fails with ErrVersionMismatch otherwise; a write-only stream cannot
// be verified and is trusted.
//
// Callers appending to an existing file must seek to its end before calling
// NewWriter, and must not open it in O_APPEND mode: the writer decides
// whether a header is needed from the stream position.
type Writer struct {
	stream io.WriteSeeker
	codec  payloadCodec
	srid   int32
}

// NewWriter attaches a writer to a stream, writing the header first if the
// stream is empty.
func NewWriter(ws io.WriteSeeker, attrs map[string]interface{}, opts *WriterOptions) (*Writer, error) {
	if opts == nil {
		opts = DefaultWriterOptions()
	}
	version := opts.Version
	if version == 0 {
		version = CurrentSchema
	}
	srid := opts.SRID
	if srid == 0 {
		srid = DefaultSRID
	}

	codec := codecForVersion(uint8(version))
	if codec == nil {
		return nil, fmt.Errorf("%w: %d, expected one of %v",
			ErrUnsupportedVersion, version, supportedVersions())
	}

	w := &Writer{stream: ws, codec: codec, srid: srid}
	if err := w.writeHeader(attrs); err != nil {
		return nil, err
	}
	return w, nil
}

// SRID returns the spatial reference id this writer stamps into the header.
func (w *Writer) SRID() int32 { return w.srid }

func (w *Writer) writeHeader(attrs map[string]interface{}) error {
	pos, err := w.stream.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if pos != 0 {
		// Appending: the header is already on disk and must agree with
		// this writer's generation.
		return w.checkExistingHeader(pos)
	}

	encoded, err := w.codec.encodeAttributes(attrs)
	if err != nil {
		return err
	}
	h := Header{
		Version:  w.codec.schemaVersion(),
		SRID:     w.srid,
		AttrsLen: int32(len(encoded)),
	}
	if err := h.writeTo(w.stream); err != nil {
		return err
	}
	if len(encoded) > 0 {
		if _, err := w.stream.Write(encoded); err != nil {
			return err
		}
	}
	return nil
}

// checkExistingHeader reads the header of a non-empty stream, restores the
// append position, and rejects a generation mismatch.
func (w *Writer) checkExistingHeader(pos int64) error {
	rs, ok := w.stream.(io.ReadSeeker)
	if !ok {
		return nil // write-only stream, nothing to verify against
	}

	h, err := readHeader(rs)
	if err != nil {
		return err
	}
	if _, err := w.stream.Seek(pos, io.SeekStart); err != nil {
		return err
	}
	if h.Version != w.codec.schemaVersion() {
		return fmt.Errorf("%w: stream is version %d, writer encodes version %d",
			ErrVersionMismatch, h.Version, w.codec.schemaVersion())
	}
	return nil
}

// WriteFeature encodes one feature and appends its record envelope.
func (w *Writer) WriteFeature(f *Feature) error {
	payload, err := w.codec.encodeFeature(f)
	if err != nil {
		return err
	}
	return w.writeEnvelope(payload)
}

// WriteGeoJSON encodes a geojson.Feature and appends its record envelope.
func (w *Writer) WriteGeoJSON(f *geojson.Feature) error {
	return w.WriteFeature(FeatureFromGeoJSON(f, w.srid))
}

// WriteFeatureCollection appends every feature of the collection in order.
// Not transactional: a failure partway through leaves the features written
// so far as valid records on disk.
func (w *Writer) WriteFeatureCollection(fc *FeatureCollection) error {
	for _, f := range fc.Features {
		if err := w.WriteFeature(f); err != nil {
			return err
		}
	}
	return nil
}

// writeEnvelope frames a payload as length, payload, length. The duplicate
// trailing length is what makes backward iteration possible.
func (w *Writer) writeEnvelope(payload []byte) error {
	var lbuf [lengthSize]byte
	binary.LittleEndian.PutUint32(lbuf[:], uint32(len(payload)))
	if _, err := w.stream.Write(lbuf[:]); err != nil {
		return err
	}
	if _, err := w.stream.Write(payload); err != nil {
		return err
	}
	_, err := w.stream.Write(lbuf[:])
	return err
}
