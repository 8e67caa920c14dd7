// Package xdr provides the generic, low-level XDR (External Data
// Representation, RFC 4506) helpers the envelope header and the
// discriminated-union payload records are built on.
//
// Fixed-width integers are big-endian, variable-length data is
// length-prefixed and padded to a 4-byte boundary. Struct-shaped payload
// records are encoded with github.com/rasky/go-xdr instead of hand-rolled
// field-by-field code; this package covers only what that reflective codec
// cannot express: discriminated unions and the fixed envelope header.
package xdr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const maxOpaqueLength = 1024 * 1024 // 1 MB, protects against malicious length fields.

// WriteOpaque encodes variable-length opaque data: length + data + padding.
func WriteOpaque(buf *bytes.Buffer, data []byte) error {
	length := uint32(len(data))
	if err := binary.Write(buf, binary.BigEndian, length); err != nil {
		return fmt.Errorf("write opaque length: %w", err)
	}
	if _, err := buf.Write(data); err != nil {
		return fmt.Errorf("write opaque data: %w", err)
	}
	return WritePadding(buf, length)
}

// WritePadding writes the 0-3 zero bytes needed to align dataLen to 4 bytes.
func WritePadding(buf *bytes.Buffer, dataLen uint32) error {
	padding := (4 - (dataLen % 4)) % 4
	if padding > 0 {
		if _, err := buf.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("write padding: %w", err)
		}
	}
	return nil
}

// DecodeOpaque decodes variable-length opaque data, rejecting lengths beyond
// maxOpaqueLength as malicious input.
func DecodeOpaque(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("read opaque length: %w", err)
	}
	if length > maxOpaqueLength {
		return nil, fmt.Errorf("opaque length %d exceeds maximum %d", length, maxOpaqueLength)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read opaque data: %w", err)
	}
	padding := (4 - (length % 4)) % 4
	if padding > 0 {
		var padBuf [3]byte
		if _, err := io.ReadFull(r, padBuf[:padding]); err != nil {
			return nil, fmt.Errorf("skip padding: %w", err)
		}
	}
	return data, nil
}

// WriteUint32 encodes a big-endian uint32.
func WriteUint32(buf *bytes.Buffer, v uint32) error {
	if err := binary.Write(buf, binary.BigEndian, v); err != nil {
		return fmt.Errorf("write uint32: %w", err)
	}
	return nil
}

// WriteUint64 encodes a big-endian uint64.
func WriteUint64(buf *bytes.Buffer, v uint64) error {
	if err := binary.Write(buf, binary.BigEndian, v); err != nil {
		return fmt.Errorf("write uint64: %w", err)
	}
	return nil
}

// DecodeUint32 decodes a big-endian uint32.
func DecodeUint32(r io.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, fmt.Errorf("read uint32: %w", err)
	}
	return v, nil
}

// DecodeUint64 decodes a big-endian uint64.
func DecodeUint64(r io.Reader) (uint64, error) {
	var v uint64
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, fmt.Errorf("read uint64: %w", err)
	}
	return v, nil
}

// EncodeUnionDiscriminant writes the uint32 discriminant of an XDR
// discriminated union (RFC 4506 §4.15).
func EncodeUnionDiscriminant(buf *bytes.Buffer, disc uint32) error {
	return WriteUint32(buf, disc)
}

// DecodeUnionDiscriminant reads the uint32 discriminant of an XDR
// discriminated union.
func DecodeUnionDiscriminant(r io.Reader) (uint32, error) {
	return DecodeUint32(r)
}
