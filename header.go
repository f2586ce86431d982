package geostream

import (
	"encoding/binary"
	"fmt"
	"io"
)

// On-disk layout, all integers little-endian with no padding:
//
//	offset 0: u8  schema version
//	offset 1: i32 SRID
//	offset 5: i32 attribute block length (0 if absent)
//	offset 9: attribute block bytes, then record envelopes
//
// The CPython reference wrote the header with platform-native struct
// alignment; this layout is fixed and portable instead, so files written by
// that implementation on padded platforms are not readable here.
const (
	headerSize = 9
	lengthSize = 4
)

// Header is the fixed block at offset 0 of every geostream. It is written
// once by the first writer and immutable thereafter.
type Header struct {
	Version  uint8
	SRID     int32
	AttrsLen int32
}

// readHeader seeks to the start of the stream and decodes the fixed header
// fields, validating that the version is a supported generation.
func readHeader(rs io.ReadSeeker) (Header, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return Header{}, err
	}

	var buf [headerSize]byte
	if _, err := io.ReadFull(rs, buf[:]); err != nil {
		return Header{}, fmt.Errorf("%w: short read: %v", ErrInvalidHeader, err)
	}

	h := Header{
		Version:  buf[0],
		SRID:     int32(binary.LittleEndian.Uint32(buf[1:5])),
		AttrsLen: int32(binary.LittleEndian.Uint32(buf[5:9])),
	}
	if codecForVersion(h.Version) == nil {
		return Header{}, fmt.Errorf("%w: %d, expected one of %v",
			ErrUnsupportedVersion, h.Version, supportedVersions())
	}
	if h.AttrsLen < 0 {
		return Header{}, fmt.Errorf("%w: negative attribute block length %d",
			ErrInvalidHeader, h.AttrsLen)
	}
	return h, nil
}

func (h Header) writeTo(w io.Writer) error {
	var buf [headerSize]byte
	buf[0] = h.Version
	binary.LittleEndian.PutUint32(buf[1:5], uint32(h.SRID))
	binary.LittleEndian.PutUint32(buf[5:9], uint32(h.AttrsLen))
	_, err := w.Write(buf[:])
	return err
}
