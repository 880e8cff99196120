package fitdecode

import (
	"encoding/binary"
	"time"
)

const (
	// fitEpochOffset is the number of seconds between the Unix epoch
	// (1970-01-01) and the FIT epoch (1989-12-31).
	fitEpochOffset = 631065600

	minHeaderLen = 14
	fitSignature = ".FIT"

	hdrCompressedMask = 0x80
	hdrDefinitionMask = 0x40
	hdrDevFieldsMask  = 0x20
	hdrLocalTypeMask  = 0x0F

	globalMsgSession = 18
	globalMsgLength  = 19
	globalMsgRecord  = 20

	// localTypeSlots is fixed by the 4-bit local message type field.
	localTypeSlots = 16
)

// scanSignal makes the three termination modes of the record scan explicit:
// keep going, stop and keep everything decoded so far, or give up entirely.
type scanSignal int

const (
	scanContinue scanSignal = iota
	scanStopPartial
	scanFail
)

type fieldLayout struct {
	num  uint8
	size uint8
}

type messageDefinition struct {
	global   uint16
	order    binary.ByteOrder
	fields   []fieldLayout
	devBytes int
}

// decodedField is one present (non-sentinel) field value. Field maps are
// small ordered slices rather than hash maps: a record message rarely
// carries more than a dozen fields.
type decodedField struct {
	num   uint8
	value uint32
}

type decodedFields []decodedField

func (f decodedFields) get(num uint8) (uint32, bool) {
	for _, fv := range f {
		if fv.num == num {
			return fv.value, true
		}
	}
	return 0, false
}

// first returns the value of the first present field in the fallback chain.
func (f decodedFields) first(nums ...uint8) (uint32, bool) {
	for _, num := range nums {
		if v, ok := f.get(num); ok {
			return v, true
		}
	}
	return 0, false
}

// ParseHeader validates the container header and computes the decode window.
// The trailing two CRC bytes are excluded from the window, and a declared
// payload size that overruns the buffer is clamped rather than rejected.
func ParseHeader(buf []byte) (Header, bool) {
	if len(buf) < minHeaderLen {
		return Header{}, false
	}
	if string(buf[8:12]) != fitSignature {
		return Header{}, false
	}
	hdr := Header{
		Size:     buf[0],
		DataSize: binary.LittleEndian.Uint32(buf[4:8]),
	}
	hdr.WindowStart = int(hdr.Size)
	hdr.WindowEnd = hdr.WindowStart + int(hdr.DataSize)
	if limit := len(buf) - 2; hdr.WindowEnd > limit {
		hdr.WindowEnd = limit
	}
	return hdr, true
}

type decoder struct {
	buf  []byte
	off  int
	end  int
	defs [localTypeSlots]*messageDefinition
	agg  aggregator
}

// Decode turns one FIT-style container into telemetry points and a bounded
// summary. It never returns an error: an invalid container or an unexpected
// internal fault yields the zeroed degenerate result, and a truncated or
// mid-stream-broken buffer yields whatever was decoded before the break.
func Decode(buf []byte) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = degenerateResult()
		}
	}()

	hdr, ok := ParseHeader(buf)
	if !ok {
		return degenerateResult()
	}

	d := &decoder{
		buf: buf,
		off: hdr.WindowStart,
		end: hdr.WindowEnd,
		agg: newAggregator(),
	}

scan:
	for d.off < d.end {
		switch d.step() {
		case scanContinue:
		case scanStopPartial:
			break scan
		case scanFail:
			return degenerateResult()
		}
	}
	return d.agg.finalize()
}

func (d *decoder) step() scanSignal {
	hdr := d.buf[d.off]
	d.off++

	switch {
	case hdr&hdrCompressedMask != 0:
		return d.skipCompressed(hdr)
	case hdr&hdrDefinitionMask != 0:
		return d.parseDefinition(hdr)
	default:
		return d.decodeData(hdr)
	}
}

// skipCompressed advances past a compressed-timestamp record without
// decoding it. The 2-bit local type only addresses slots 0-3; when the slot
// is unbound there is no size to skip, so only the header byte is consumed.
func (d *decoder) skipCompressed(hdr uint8) scanSignal {
	local := (hdr >> 5) & 0x03
	def := d.defs[local]
	if def == nil {
		return scanContinue
	}
	for _, fl := range def.fields {
		d.off += int(fl.size)
	}
	return scanContinue
}

func (d *decoder) parseDefinition(hdr uint8) scanSignal {
	local := hdr & hdrLocalTypeMask

	// Fixed prefix: reserved byte, endianness byte, global number, field count.
	if d.off+5 > d.end {
		return scanStopPartial
	}
	d.off++ // reserved
	var order binary.ByteOrder = binary.LittleEndian
	if d.buf[d.off] != 0 {
		order = binary.BigEndian
	}
	d.off++
	global := order.Uint16(d.buf[d.off : d.off+2])
	d.off += 2
	count := int(d.buf[d.off])
	d.off++

	if d.off+count*3 > d.end {
		return scanStopPartial
	}
	fields := make([]fieldLayout, 0, count)
	for i := 0; i < count; i++ {
		fields = append(fields, fieldLayout{num: d.buf[d.off], size: d.buf[d.off+1]})
		d.off += 3
	}

	devBytes := 0
	if hdr&hdrDevFieldsMask != 0 {
		if d.off >= d.end {
			return scanStopPartial
		}
		devCount := int(d.buf[d.off])
		d.off++
		if d.off+devCount*3 > d.end {
			return scanStopPartial
		}
		for i := 0; i < devCount; i++ {
			devBytes += int(d.buf[d.off+1])
			d.off += 3
		}
	}

	d.defs[local] = &messageDefinition{
		global:   global,
		order:    order,
		fields:   fields,
		devBytes: devBytes,
	}
	return scanContinue
}

func (d *decoder) decodeData(hdr uint8) scanSignal {
	local := hdr & hdrLocalTypeMask
	def := d.defs[local]
	if def == nil {
		// The layout for this slot was never defined; the stream cannot
		// be advanced reliably past this point.
		return scanStopPartial
	}

	fields := make(decodedFields, 0, len(def.fields))
	for _, fl := range def.fields {
		size := int(fl.size)
		if d.off+size > d.end {
			return scanStopPartial
		}
		raw := d.buf[d.off : d.off+size]
		d.off += size

		switch size {
		case 1:
			if v := uint32(raw[0]); v != 0xFF {
				fields = append(fields, decodedField{num: fl.num, value: v})
			}
		case 2:
			if v := uint32(def.order.Uint16(raw)); v != 0xFFFF {
				fields = append(fields, decodedField{num: fl.num, value: v})
			}
		case 4:
			if v := def.order.Uint32(raw); v != 0xFFFFFFFF {
				fields = append(fields, decodedField{num: fl.num, value: v})
			}
		default:
			// Unsupported width: bytes consumed for offset accounting,
			// value dropped.
		}
	}

	if def.devBytes > 0 {
		if d.off+def.devBytes > d.end {
			// Standard fields decoded fully; only the developer prefix is
			// truncated. Keep the message, stop the scan.
			d.interpret(def.global, fields)
			return scanStopPartial
		}
		d.off += def.devBytes
	}

	d.interpret(def.global, fields)
	return scanContinue
}

func (d *decoder) interpret(global uint16, fields decodedFields) {
	switch global {
	case globalMsgRecord:
		d.agg.addRecord(fields)
	case globalMsgLength:
		d.agg.addLength(fields)
	case globalMsgSession:
		d.agg.addSession(fields)
	}
}

func fitTime(raw uint32) time.Time {
	return time.Unix(int64(raw)+fitEpochOffset, 0).UTC()
}
