package geostream

import (
	"encoding/binary"
	"errors"
	"io"
)

// forwardReader iterates record envelopes in write order. Truncated trailing
// data ends iteration silently, so a file still being appended to reads as
// the prefix of fully written records.
type forwardReader struct {
	streamInfo
	stream  io.Reader
	codec   payloadCodec
	feature *Feature
	err     error
	done    bool
}

// newForwardReader assumes the stream is positioned just past the header
// and its attribute block.
func newForwardReader(r io.Reader, header Header, attrs map[string]interface{}, codec payloadCodec) *forwardReader {
	return &forwardReader{
		streamInfo: streamInfo{header: header, attrs: attrs},
		stream:     r,
		codec:      codec,
	}
}

func (r *forwardReader) Next() bool {
	if r.done {
		return false
	}

	var lbuf [lengthSize]byte
	if _, err := io.ReadFull(r.stream, lbuf[:]); err != nil {
		r.stop(err) // normal end of stream
		return false
	}
	length := int32(binary.LittleEndian.Uint32(lbuf[:]))
	if length <= 0 {
		r.done = true
		return false
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r.stream, payload); err != nil {
		r.stop(err) // dangling record, treated as if never written
		return false
	}

	// The trailing length exists for the reverse reader; the forward path
	// reads past it without comparing it to the prefix, and a record whose
	// payload is complete decodes even if the trailing length is cut off.
	_, _ = io.ReadFull(r.stream, lbuf[:])

	f, err := r.codec.decodeFeature(payload, r.header.SRID)
	if err != nil {
		r.err = err
		r.done = true
		return false
	}
	r.feature = f
	return true
}

// stop ends iteration, keeping real I/O failures and swallowing EOFs.
func (r *forwardReader) stop(err error) {
	if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		r.err = err
	}
	r.done = true
}

func (r *forwardReader) Feature() *Feature { return r.feature }

func (r *forwardReader) Err() error { return r.err }
