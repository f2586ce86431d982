package geostream

import (
	"encoding/binary"
	"io"
)

// reverseReader iterates record envelopes from the end of the stream toward
// the header, producing the exact reverse of write order. It keeps a window
// of raw bytes pulled from the tail of the stream and grows that window
// toward the stream start in fixed-size chunks whenever the next envelope
// does not fit. Bytes already consumed are never re-read.
type reverseReader struct {
	streamInfo
	stream  io.ReadSeeker
	codec   payloadCodec
	bufSize int64

	dataSize      int64 // bytes between the attribute block and the stream end
	remaining     int64 // data bytes not yet pulled into the window
	offsetFromEnd int64 // how far back from the stream end the window starts

	buf []byte
	cur int // buf[:cur] is unread; the cursor moves toward 0

	feature *Feature
	err     error
	done    bool
}

// newReverseReader assumes the stream is positioned just past the header
// and its attribute block, which marks the lower bound of record data.
func newReverseReader(rs io.ReadSeeker, header Header, attrs map[string]interface{}, codec payloadCodec, bufSize int) (*reverseReader, error) {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	endOfAttrs, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	endOfStream, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}

	dataSize := endOfStream - endOfAttrs
	return &reverseReader{
		streamInfo: streamInfo{header: header, attrs: attrs},
		stream:     rs,
		codec:      codec,
		bufSize:    int64(bufSize),
		dataSize:   dataSize,
		remaining:  dataSize,
	}, nil
}

// grow extends the window one chunk toward the stream start, relocating
// still-unread bytes to the tail of the new window. It reports whether any
// bytes were added.
func (r *reverseReader) grow() (bool, error) {
	if r.remaining <= 0 {
		return false, nil
	}

	leftover := r.buf[:r.cur]

	r.offsetFromEnd = min(r.dataSize, r.offsetFromEnd+r.bufSize)
	if _, err := r.stream.Seek(-r.offsetFromEnd, io.SeekEnd); err != nil {
		return false, err
	}

	n := min(r.remaining, r.bufSize)
	window := make([]byte, int(n)+len(leftover))
	if _, err := io.ReadFull(r.stream, window[:n]); err != nil {
		return false, err
	}
	copy(window[n:], leftover)
	r.remaining -= r.bufSize

	r.buf = window
	r.cur = len(window)
	return true, nil
}

func (r *reverseReader) Next() bool {
	if r.done {
		return false
	}
	f, err := r.read()
	if err != nil {
		r.err = err
		r.done = true
		return false
	}
	if f == nil {
		r.done = true
		return false
	}
	r.feature = f
	return true
}

// read consumes exactly one envelope, or returns nil at the end of backward
// iteration. Malformed or truncated data toward the stream start terminates
// silently, mirroring the forward reader's truncation policy.
func (r *reverseReader) read() (*Feature, error) {
	for r.cur < lengthSize {
		grew, err := r.grow()
		if err != nil {
			return nil, err
		}
		if !grew {
			return nil, nil // not enough bytes left for a length field
		}
	}

	// Moving backward, the trailing length is encountered first.
	length := int32(binary.LittleEndian.Uint32(r.buf[r.cur-lengthSize : r.cur]))
	if length < 0 {
		return nil, nil
	}

	envelope := int(length) + 2*lengthSize
	for envelope > r.cur {
		if _, err := r.grow(); err != nil {
			return nil, err
		}
		if r.remaining <= 0 && envelope > r.cur {
			return nil, nil // envelope runs past the stream start
		}
	}

	payload := r.buf[r.cur-lengthSize-int(length) : r.cur-lengthSize]
	r.cur -= envelope
	if length == 0 {
		return nil, nil
	}
	return r.codec.decodeFeature(payload, r.header.SRID)
}

func (r *reverseReader) Feature() *Feature { return r.feature }

func (r *reverseReader) Err() error { return r.err }
