package fitdecode

import (
	"encoding/binary"
	"fmt"

	"github.com/tormoder/fit/dyncrc16"
)

// CRCCheck reports one CRC-16 comparison. It is informational only:
// Decode never consults CRC validity.
type CRCCheck struct {
	Present     bool   `json:"present"`
	StoredHex   string `json:"stored_hex,omitempty"`
	ComputedHex string `json:"computed_hex,omitempty"`
	Valid       bool   `json:"valid"`
}

// VerifyCRC checks the optional header CRC (14-byte headers only; a stored
// value of zero means "not set" and passes) and the trailing file CRC over
// header plus payload. Malformed buffers yield absent checks, never errors.
func VerifyCRC(buf []byte) (header, file CRCCheck) {
	hdr, ok := ParseHeader(buf)
	if !ok {
		return CRCCheck{}, CRCCheck{}
	}

	if hdr.Size == minHeaderLen {
		stored := binary.LittleEndian.Uint16(buf[12:14])
		header = CRCCheck{
			Present:   true,
			StoredHex: fmt.Sprintf("0x%04X", stored),
			Valid:     true,
		}
		if stored != 0 {
			computed := dyncrc16.Checksum(buf[:12])
			header.ComputedHex = fmt.Sprintf("0x%04X", computed)
			header.Valid = stored == computed
		}
	}

	crcOff := int(hdr.Size) + int(hdr.DataSize)
	if crcOff+2 > len(buf) {
		return header, CRCCheck{}
	}
	stored := binary.LittleEndian.Uint16(buf[crcOff : crcOff+2])
	computed := dyncrc16.Checksum(buf[:crcOff])
	file = CRCCheck{
		Present:     true,
		StoredHex:   fmt.Sprintf("0x%04X", stored),
		ComputedHex: fmt.Sprintf("0x%04X", computed),
		Valid:       stored == computed,
	}
	return header, file
}
