// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package armor implements the OpenPGP ASCII armor encoding: base64 key
// material framed by BEGIN/END marker lines and protected by a CRC-24
// checksum line.
//
// Decode additionally tolerates one outer layer of plain base64 around the
// whole block, the form commonly used to move multiline keys through CI
// secret stores.
package armor

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Decode failures. All of them are terminal: armored key material that does
// not check out bit-exactly must never be propagated further.
var (
	// ErrNotArmored is returned when no armor BEGIN line can be located,
	// even after undoing an outer base64 layer.
	ErrNotArmored = errors.New("armor: no armored block found")

	// ErrChecksumMismatch is returned when the CRC-24 line is missing,
	// unreadable or does not match the decoded body.
	ErrChecksumMismatch = errors.New("armor: checksum mismatch")

	// ErrTruncated is returned when the base64 body ends mid-group or the
	// END line is missing.
	ErrTruncated = errors.New("armor: truncated block")
)

const (
	beginPrefix = "-----BEGIN "
	endPrefix   = "-----END "
	markSuffix  = "-----"

	// Radix-64 checksum parameters (RFC 4880, section 6.1).
	crc24Init = 0xB704CE
	crc24Poly = 0x1864CFB

	bodyLineLength = 64
)

// Block holds the result of decoding an armored block.
type Block struct {
	// Type is the label from the BEGIN line, e.g. "PGP PRIVATE KEY BLOCK".
	Type string

	// Data is the dearmored binary packet stream.
	Data []byte
}

// Decode strips the armor framing from input and returns the binary body.
//
// If input does not contain a BEGIN line it is treated as an outer base64
// layer: the whole input is base64-decoded once and re-checked. The CRC-24
// line is mandatory and verified against the decoded body.
func Decode(input []byte) (*Block, error) {
	text := string(input)

	if !strings.Contains(text, beginPrefix) {
		unwrapped, err := base64.StdEncoding.DecodeString(stripSpace(text))
		if err != nil || !strings.Contains(string(unwrapped), beginPrefix) {
			return nil, ErrNotArmored
		}

		text = string(unwrapped)
	}

	blockType, rest, err := readBeginLine(text)
	if err != nil {
		return nil, err
	}

	body, checksum, err := readBody(rest)
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}

	if checksum == "" {
		return nil, fmt.Errorf("%w: missing checksum line", ErrChecksumMismatch)
	}

	want, err := base64.StdEncoding.DecodeString(checksum)
	if err != nil || len(want) != 3 {
		return nil, fmt.Errorf("%w: unreadable checksum line", ErrChecksumMismatch)
	}

	if !bytes.Equal(want, crc24Bytes(data)) {
		return nil, ErrChecksumMismatch
	}

	return &Block{
		Type: blockType,
		Data: data,
	}, nil
}

// Encode renders data as an armored block of the given type, wrapped at 64
// columns and terminated by the CRC-24 line. The inverse of Decode.
func Encode(blockType string, data []byte) []byte {
	var out bytes.Buffer

	fmt.Fprintf(&out, "%s%s%s\n\n", beginPrefix, blockType, markSuffix)

	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > bodyLineLength {
		out.WriteString(encoded[:bodyLineLength])
		out.WriteByte('\n')

		encoded = encoded[bodyLineLength:]
	}

	if len(encoded) > 0 {
		out.WriteString(encoded)
		out.WriteByte('\n')
	}

	fmt.Fprintf(&out, "=%s\n", base64.StdEncoding.EncodeToString(crc24Bytes(data)))
	fmt.Fprintf(&out, "%s%s%s\n", endPrefix, blockType, markSuffix)

	return out.Bytes()
}

// readBeginLine locates the BEGIN marker and returns the block type and the
// text following the marker line.
func readBeginLine(text string) (blockType, rest string, err error) {
	start := strings.Index(text, beginPrefix)
	if start < 0 {
		return "", "", ErrNotArmored
	}

	after := text[start+len(beginPrefix):]

	typeEnd := strings.Index(after, markSuffix)
	if typeEnd < 0 {
		return "", "", ErrNotArmored
	}

	blockType = after[:typeEnd]
	after = after[typeEnd+len(markSuffix):]

	lineEnd := strings.IndexByte(after, '\n')
	if lineEnd < 0 {
		return "", "", fmt.Errorf("%w: nothing follows the BEGIN line", ErrTruncated)
	}

	return blockType, after[lineEnd+1:], nil
}

// readBody collects the base64 body lines up to the END marker, skipping
// armor headers ("Key: value" lines before the first blank line) and
// capturing the checksum line.
func readBody(text string) (body, checksum string, err error) {
	end := strings.Index(text, endPrefix)
	if end < 0 {
		return "", "", fmt.Errorf("%w: END line not found", ErrTruncated)
	}

	var b64 strings.Builder

	inHeaders := true

	for _, line := range strings.Split(text[:end], "\n") {
		line = strings.TrimSpace(line)

		if inHeaders {
			if line == "" {
				inHeaders = false

				continue
			}

			if strings.Contains(line, ": ") {
				continue
			}

			// No header section at all, first line is body.
			inHeaders = false
		}

		switch {
		case line == "":
		case strings.HasPrefix(line, "="):
			checksum = line[1:]
		default:
			b64.WriteString(line)
		}
	}

	return b64.String(), checksum, nil
}

// crc24Bytes computes the Radix-64 CRC-24 over data, big-endian.
func crc24Bytes(data []byte) []byte {
	crc := uint32(crc24Init)

	for _, b := range data {
		crc ^= uint32(b) << 16

		for i := 0; i < 8; i++ {
			crc <<= 1
			if crc&0x1000000 != 0 {
				crc ^= crc24Poly
			}
		}
	}

	return []byte{byte(crc >> 16), byte(crc >> 8), byte(crc)}
}

// stripSpace removes ASCII whitespace, allowing the outer base64 layer to be
// line-wrapped by the transport that carried it.
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}

		return r
	}, s)
}
