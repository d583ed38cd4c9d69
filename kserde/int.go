package kserde

import (
	"encoding/binary"
	"fmt"
)

var Int64Serializer = func(data int64) ([]byte, error) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(data))
	return buf, nil
}

var Int64Deserializer = func(data []byte) (int64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: int64 needs exactly 8 bytes, got %d", ErrUnexpectedType, len(data))
	}
	return int64(binary.BigEndian.Uint64(data)), nil
}

var Int64 = Serde[int64]{
	Serializer:   Int64Serializer,
	Deserializer: Int64Deserializer,
}
