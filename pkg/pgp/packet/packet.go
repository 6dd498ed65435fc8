// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package packet implements the OpenPGP binary packet format: framing a
// dearmored byte stream into tagged packets and decoding the packet types
// needed to describe a signing key (key material, user ids, signatures).
package packet

import (
	"errors"
	"fmt"
	"io"
)

// Decode failures. Terminal for the whole stream: corrupted key material is
// never partially decoded.
var (
	// ErrTruncated is returned when a declared packet length runs past the
	// end of the stream.
	ErrTruncated = errors.New("packet: truncated stream")

	// ErrUnsupportedPacketLength is returned for partial-length (streamed)
	// packet encodings, which never occur in exported key material.
	ErrUnsupportedPacketLength = errors.New("packet: unsupported packet length encoding")

	// ErrMalformedPacket is returned when a recognized packet's body does
	// not decode per its expected layout.
	ErrMalformedPacket = errors.New("packet: malformed packet")

	// ErrUnsupportedAlgorithm is returned for key algorithm ids or curves
	// outside the supported set.
	ErrUnsupportedAlgorithm = errors.New("packet: unsupported public key algorithm")

	// ErrUnsupportedKeyVersion is returned for key packet versions other
	// than 4; later revisions use different layouts and are refused rather
	// than guessed at.
	ErrUnsupportedKeyVersion = errors.New("packet: unsupported key packet version")
)

// OpenPGP packet tags handled by this package.
const (
	TagSignature    = 2
	TagSecretKey    = 5
	TagPublicKey    = 6
	TagSecretSubkey = 7
	TagUserID       = 13
	TagPublicSubkey = 14
)

// RawPacket is a single length-delimited unit of the packet stream, not yet
// interpreted.
type RawPacket struct {
	Tag  int
	Body []byte
}

// Reader splits a dearmored byte stream into raw packets. It is a lazy,
// forward-only cursor over a single buffer.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader over the dearmored stream.
func NewReader(data []byte) *Reader {
	return &Reader{buf: data}
}

// Next returns the next raw packet, or io.EOF once the buffer is exhausted.
func (r *Reader) Next() (*RawPacket, error) {
	if r.off >= len(r.buf) {
		return nil, io.EOF
	}

	header := r.buf[r.off]
	r.off++

	if header&0x80 == 0 {
		return nil, fmt.Errorf("%w: header byte 0x%02x at offset %d", ErrMalformedPacket, header, r.off-1)
	}

	var (
		tag    int
		length int
		toEnd  bool
		lenErr error
	)

	if header&0x40 != 0 {
		tag = int(header & 0x3F)
		length, lenErr = r.newFormatLength()
	} else {
		tag = int((header >> 2) & 0x0F)
		length, toEnd, lenErr = r.oldFormatLength(header & 0x03)
	}

	if lenErr != nil {
		return nil, lenErr
	}

	if toEnd {
		length = len(r.buf) - r.off
	}

	if length > len(r.buf)-r.off {
		return nil, fmt.Errorf("%w: packet tag %d declares %d bytes, %d remain", ErrTruncated, tag, length, len(r.buf)-r.off)
	}

	body := r.buf[r.off : r.off+length]
	r.off += length

	return &RawPacket{Tag: tag, Body: body}, nil
}

// newFormatLength decodes a new-format body length: one octet below 192, the
// two-octet form for 192..8383, the five-octet form introduced by 0xFF.
// Partial lengths (0xE0..0xFE) are refused.
func (r *Reader) newFormatLength() (int, error) {
	b0, err := r.take()
	if err != nil {
		return 0, err
	}

	switch {
	case b0 < 192:
		return int(b0), nil
	case b0 < 224:
		b1, err := r.take()
		if err != nil {
			return 0, err
		}

		return (int(b0)-192)<<8 + int(b1) + 192, nil
	case b0 == 255:
		return r.takeUint32()
	default:
		return 0, ErrUnsupportedPacketLength
	}
}

// oldFormatLength decodes an old-format body length from its 2-bit length
// type: 1, 2 or 4 following octets, or indeterminate (rest of the buffer).
func (r *Reader) oldFormatLength(lengthType byte) (length int, toEnd bool, err error) {
	switch lengthType {
	case 0:
		b, err := r.take()

		return int(b), false, err
	case 1:
		b0, err := r.take()
		if err != nil {
			return 0, false, err
		}

		b1, err := r.take()

		return int(b0)<<8 | int(b1), false, err
	case 2:
		length, err := r.takeUint32()

		return length, false, err
	default:
		return 0, true, nil
	}
}

func (r *Reader) take() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, fmt.Errorf("%w: header ends mid-length", ErrTruncated)
	}

	b := r.buf[r.off]
	r.off++

	return b, nil
}

func (r *Reader) takeUint32() (int, error) {
	if len(r.buf)-r.off < 4 {
		return 0, fmt.Errorf("%w: header ends mid-length", ErrTruncated)
	}

	v := int(r.buf[r.off])<<24 | int(r.buf[r.off+1])<<16 | int(r.buf[r.off+2])<<8 | int(r.buf[r.off+3])
	r.off += 4

	return v, nil
}
