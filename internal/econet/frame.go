package econet

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Frame delimiters.
const (
	// StartByte marks the beginning of every ecoNET frame.
	StartByte = 0x68

	// StopByte marks the end of every ecoNET frame.
	StopByte = 0x16
)

// Well-known bus addresses.
const (
	// AddrController is the boiler controller's bus address.
	AddrController uint16 = 1

	// AddrPanel is the address this bridge claims, matching what the
	// vendor's room panel uses. Writes are only accepted from panels.
	AddrPanel uint16 = 100
)

// Function codes.
const (
	// FuncScan enumerates available parameters.
	FuncScan byte = 0x01

	// FuncReadValue reads a parameter's current value.
	FuncReadValue byte = 0x43

	// FuncWriteValue is the legacy unauthenticated write. Rejected by
	// recent firmware; kept for protocol completeness.
	FuncWriteValue byte = 0x44

	// FuncWriteValueSession is the legacy session-based write.
	FuncWriteValueSession byte = 0x45

	// FuncWriteForce is the panel-style authenticated write. This is the
	// only write variant current ecoMAX 360i firmware accepts.
	FuncWriteForce byte = 0x29
)

// Frame layout constants.
const (
	// frameOverhead is start(1) + len(2) + crc(2) + stop(1).
	frameOverhead = 6

	// headerLen is dest(2) + src(2) + func(1), the fixed part counted by
	// the frame's length field.
	headerLen = 5

	// minScanLen is the minimum buffered bytes needed to read a length field.
	minScanLen = 3
)

// Frame represents a single ecoNET protocol frame.
type Frame struct {
	// Dest is the destination bus address.
	Dest uint16

	// Src is the source bus address.
	Src uint16

	// Func is the function code (read, write, scan).
	Func byte

	// Payload is the function-specific body. May be empty.
	Payload []byte
}

// Encode serialises the frame to wire format.
//
// The length field is little-endian, the CRC big-endian; this asymmetry is
// how the controller firmware actually behaves, not a mistake.
func (f Frame) Encode() []byte {
	bodyLen := headerLen + len(f.Payload)

	buf := make([]byte, 0, bodyLen+frameOverhead)
	buf = append(buf, StartByte)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(bodyLen))
	buf = binary.LittleEndian.AppendUint16(buf, f.Dest)
	buf = binary.LittleEndian.AppendUint16(buf, f.Src)
	buf = append(buf, f.Func)
	buf = append(buf, f.Payload...)

	// CRC covers len through payload.
	crc := crc16(buf[1:])
	buf = binary.BigEndian.AppendUint16(buf, crc)
	buf = append(buf, StopByte)
	return buf
}

// decodeBody parses the dest/src/func/payload portion of a validated frame.
func decodeBody(body []byte) (Frame, error) {
	if len(body) < headerLen {
		return Frame{}, fmt.Errorf("%w: body too short (%d bytes)", ErrInvalidFrame, len(body))
	}
	payload := make([]byte, len(body)-headerLen)
	copy(payload, body[headerLen:])
	return Frame{
		Dest:    binary.LittleEndian.Uint16(body[0:2]),
		Src:     binary.LittleEndian.Uint16(body[2:4]),
		Func:    body[4],
		Payload: payload,
	}, nil
}

// crc16 computes CRC-16/CCITT (poly 0x1021, init 0x0000) over data.
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// Scanner extracts frames from a byte stream.
//
// The RS485 converter forwards raw bus bytes, so the stream may contain
// partial frames, interleaved noise, or frames addressed to other bus
// participants. Feed appends received bytes; Next returns the next valid
// frame, silently discarding anything that fails validation.
//
// Scanner is not safe for concurrent use; each Transport transaction owns
// its own instance.
type Scanner struct {
	buf []byte
}

// Feed appends received bytes to the scan buffer.
func (s *Scanner) Feed(data []byte) {
	s.buf = append(s.buf, data...)
}

// Next returns the next valid frame from the buffer.
//
// Returns ErrNoFrame when the buffer holds no complete frame yet; callers
// should read more bytes and try again. Invalid data (bad CRC, missing stop
// byte) is skipped one byte at a time so a corrupted frame cannot wedge the
// stream.
func (s *Scanner) Next() (Frame, error) {
	for {
		start := bytes.IndexByte(s.buf, StartByte)
		if start < 0 {
			s.buf = s.buf[:0]
			return Frame{}, ErrNoFrame
		}
		if start > 0 {
			s.buf = s.buf[start:]
		}

		if len(s.buf) < minScanLen {
			return Frame{}, ErrNoFrame
		}

		bodyLen := int(binary.LittleEndian.Uint16(s.buf[1:3]))
		total := bodyLen + frameOverhead
		if bodyLen < headerLen {
			// Length field can't be valid; skip this start byte.
			s.buf = s.buf[1:]
			continue
		}
		if len(s.buf) < total {
			return Frame{}, ErrNoFrame
		}

		// CRC covers len(2) + body; stored big-endian after the body.
		crcEnd := 1 + 2 + bodyLen
		wantCRC := binary.BigEndian.Uint16(s.buf[crcEnd : crcEnd+2])
		if crc16(s.buf[1:crcEnd]) != wantCRC || s.buf[total-1] != StopByte {
			s.buf = s.buf[1:]
			continue
		}

		frame, err := decodeBody(s.buf[3:crcEnd])
		s.buf = s.buf[total:]
		if err != nil {
			continue
		}
		return frame, nil
	}
}
