// Package snapshot implements the SnapshotEncoder of spec.md §4.8: a
// binary delta/full-snapshot wire protocol built from World + dirty
// tracker state, plus the per-client unicast ack framing of spec.md
// §6.2. The layout is hand-rolled (tag byte + little-endian fields)
// rather than protobuf/gob, matching the byte-exact format spec.md
// prescribes and the style already shown by this corpus's other
// hand-written binary encoders.
package snapshot

import (
	"encoding/binary"
	"math"
)

// Tag is the single leading byte identifying a packet's wire shape.
type Tag byte

const (
	TagTransformUpdate Tag = 0x01
	TagPhysicsUpdate   Tag = 0x02
	TagComponentDelta  Tag = 0x03
	TagEntitySpawn     Tag = 0x04
	TagEntityDestroy   Tag = 0x05
)

func putFloat32(buf []byte, v float32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return append(buf, b[:]...)
}

func getFloat32(buf []byte) (float32, []byte) {
	bits := binary.LittleEndian.Uint32(buf[:4])
	return math.Float32frombits(bits), buf[4:]
}

func putUint16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func getUint16(buf []byte) (uint16, []byte) {
	return binary.LittleEndian.Uint16(buf[:2]), buf[2:]
}

func putUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func getUint32(buf []byte) (uint32, []byte) {
	return binary.LittleEndian.Uint32(buf[:4]), buf[4:]
}

// PrependAck builds the final per-client wire frame of spec.md §6.2:
// lastProcessedInputSeq(4 u32 LE) || payload.
func PrependAck(ack uint32, payload []byte) []byte {
	out := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(out[:4], ack)
	copy(out[4:], payload)
	return out
}

// DecodeAck splits a wire frame back into its ack and payload.
func DecodeAck(frame []byte) (ack uint32, payload []byte) {
	ack = binary.LittleEndian.Uint32(frame[:4])
	return ack, frame[4:]
}
