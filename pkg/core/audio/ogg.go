package audio

import (
	"encoding/binary"
	"fmt"
)

const oggPageHeaderSize = 27

// oggPackets reassembles the logical packets of a single Ogg stream.
// Lacing values alone determine packet boundaries, so the
// continued-packet flag is not consulted. Pages from secondary
// streams (a different serial number than the first page) are
// skipped. A truncated final page ends the scan; a packet left
// unterminated at end of stream is dropped.
func oggPackets(b []byte) ([][]byte, error) {
	if DetectFormat(b) != FormatOgg {
		return nil, fmt.Errorf("not an ogg stream")
	}

	var (
		packets    [][]byte
		pending    []byte
		serial     uint32
		haveSerial bool
	)

	off := 0
	for off+oggPageHeaderSize <= len(b) {
		page := b[off:]
		if string(page[0:4]) != "OggS" {
			return nil, fmt.Errorf("bad ogg capture pattern at offset %d", off)
		}
		if page[4] != 0 {
			return nil, fmt.Errorf("unsupported ogg stream structure version %d", page[4])
		}

		pageSerial := binary.LittleEndian.Uint32(page[14:18])
		nsegs := int(page[26])
		if off+oggPageHeaderSize+nsegs > len(b) {
			break
		}
		segments := page[oggPageHeaderSize : oggPageHeaderSize+nsegs]

		bodyLen := 0
		for _, s := range segments {
			bodyLen += int(s)
		}
		bodyOff := off + oggPageHeaderSize + nsegs
		if bodyOff+bodyLen > len(b) {
			break
		}
		body := b[bodyOff : bodyOff+bodyLen]

		if !haveSerial {
			serial = pageSerial
			haveSerial = true
		}
		if pageSerial == serial {
			pos := 0
			for _, s := range segments {
				pending = append(pending, body[pos:pos+int(s)]...)
				pos += int(s)
				if s < 255 {
					packets = append(packets, pending)
					pending = nil
				}
			}
		}

		off = bodyOff + bodyLen
	}

	return packets, nil
}
