package bound

import (
	"encoding/binary"

	"github.com/pulseengine/wrt/api"
)

// Codec supplies the per-element serialization routines section 4.1
// requires: serialized byte size, write-into-byte-stream, read-from-byte-
// stream, and (implicitly, via Size) the checksum-update granularity. Every
// element of a given BoundedVec shares one Codec, so Size must be the same
// for every value of T.
type Codec[T any] interface {
	// Size returns the fixed number of bytes an encoded T occupies. Zero
	// is only valid for a type that carries no data (section 4.1).
	Size() int
	// Encode writes v into buf, which is exactly Size() bytes long.
	Encode(v T, buf []byte)
	// Decode reads a T out of buf, which is exactly Size() bytes long.
	Decode(buf []byte) (T, error)
}

// ByteCodec encodes a single byte, the element codec BoundedString uses.
type ByteCodec struct{}

func (ByteCodec) Size() int { return 1 }
func (ByteCodec) Encode(v byte, buf []byte) { buf[0] = v }
func (ByteCodec) Decode(buf []byte) (byte, error) { return buf[0], nil }

// Uint32Codec encodes a little-endian uint32.
type Uint32Codec struct{}

func (Uint32Codec) Size() int { return 4 }
func (Uint32Codec) Encode(v uint32, buf []byte) { binary.LittleEndian.PutUint32(buf, v) }
func (Uint32Codec) Decode(buf []byte) (uint32, error) { return binary.LittleEndian.Uint32(buf), nil }

// Uint64Codec encodes a little-endian uint64, used for task ids, fuel
// counters, and other scalar bookkeeping kept in bounded collections.
type Uint64Codec struct{}

func (Uint64Codec) Size() int { return 8 }
func (Uint64Codec) Encode(v uint64, buf []byte) { binary.LittleEndian.PutUint64(buf, v) }
func (Uint64Codec) Decode(buf []byte) (uint64, error) { return binary.LittleEndian.Uint64(buf), nil }

// ValueCodec encodes an api.Value as a 1-byte type tag followed by 8 bytes
// of payload, preserving float bit patterns (including NaN payloads)
// exactly, per the section 8 round-trip law.
type ValueCodec struct{}

func (ValueCodec) Size() int { return 9 }

func (ValueCodec) Encode(v api.Value, buf []byte) {
	buf[0] = byte(v.Type())
	var payload uint64
	switch v.Type() {
	case api.ValueTypeI32:
		payload = uint64(uint32(v.I32()))
	case api.ValueTypeI64:
		payload = v.U64()
	case api.ValueTypeF32:
		payload = uint64(v.F32Bits())
	case api.ValueTypeF64:
		payload = v.F64Bits()
	case api.ValueTypeFuncref, api.ValueTypeExternref:
		payload = v.RefHandle()
		if v.IsNull() {
			// Mark null by setting the high bit of the tag byte; handle
			// zero is a valid non-null reference.
			buf[0] |= 0x80
		}
	}
	binary.LittleEndian.PutUint64(buf[1:], payload)
}

func (ValueCodec) Decode(buf []byte) (api.Value, error) {
	tag := buf[0] &^ 0x80
	null := buf[0]&0x80 != 0
	payload := binary.LittleEndian.Uint64(buf[1:])
	switch api.ValueType(tag) {
	case api.ValueTypeI32:
		return api.I32Value(int32(uint32(payload))), nil
	case api.ValueTypeI64:
		return api.I64Value(int64(payload)), nil
	case api.ValueTypeF32:
		return api.F32Value(uint32(payload)), nil
	case api.ValueTypeF64:
		return api.F64Value(payload), nil
	case api.ValueTypeFuncref:
		if null {
			return api.NullFuncRef(), nil
		}
		return api.FuncRefValue(payload), nil
	case api.ValueTypeExternref:
		if null {
			return api.NullExternRef(), nil
		}
		return api.ExternRefValue(payload), nil
	default:
		return api.Value{}, &ConversionError{Reason: "unknown value type tag"}
	}
}
