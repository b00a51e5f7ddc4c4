package memory

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// A Kind identifies how the bytes of an observed value are interpreted.
type Kind int

// Kinds of values that can be observed.
const (
	KindU8 Kind = iota
	KindU16
	KindU32
	KindU64
	KindCString
)

var kindNames = map[Kind]string{
	KindU8:      "u8",
	KindU16:     "u16",
	KindU32:     "u32",
	KindU64:     "u64",
	KindCString: "cstring",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts a kind name, such as "u8" or "cstring", to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}

	return 0, fmt.Errorf("unknown value kind %q", s)
}

// IsText returns true for kinds that decode to strings.
func (k Kind) IsText() bool {
	return k == KindCString
}

// Size returns the number of bytes the kind occupies. Text kinds take their
// width from n, the capacity of the fixed-size string.
func (k Kind) Size(n int) int {
	switch k {
	case KindU8:
		return 1
	case KindU16:
		return 2
	case KindU32:
		return 4
	case KindU64:
		return 8
	default:
		return n
	}
}

// DecodeUint interprets little-endian bytes of a numeric kind.
func DecodeUint(k Kind, buf []byte) uint64 {
	switch k {
	case KindU8:
		return uint64(buf[0])
	case KindU16:
		return uint64(binary.LittleEndian.Uint16(buf))
	case KindU32:
		return uint64(binary.LittleEndian.Uint32(buf))
	default:
		return binary.LittleEndian.Uint64(buf)
	}
}

// EncodeUint is the inverse of DecodeUint.
func EncodeUint(k Kind, v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)

	return buf[:k.Size(0)]
}

// DecodeCString returns the text of a fixed-size, NUL-terminated string. A
// buffer with no NUL byte is taken as a whole.
func DecodeCString(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return string(buf[:i])
	}

	return string(buf)
}

// EncodeCString writes s into a zero-padded buffer of n bytes. Text longer
// than n is truncated.
func EncodeCString(s string, n int) []byte {
	buf := make([]byte, n)
	copy(buf, s)

	return buf
}
