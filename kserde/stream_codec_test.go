package kserde

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestStreamCodec(t *testing.T) {
	t.Run("names", func(t *testing.T) {
		assert.Equal(t, CodecJSON, JSONStreamCodec[sample]().Name())
		assert.Equal(t, CodecMsgpack, MsgpackStreamCodec[sample]().Name())
		assert.Equal(t, CodecString, StringStreamCodec.Name())
		assert.Equal(t, CodecInt64, Int64StreamCodec.Name())
	})

	t.Run("encode and decode", func(t *testing.T) {
		codec := JSONStreamCodec[sample]()
		data, err := codec.Encode(sample{Name: "tuple"})
		assert.NoError(t, err)

		v, err := codec.Decode(data)
		assert.NoError(t, err)
		assert.Equal(t, any(sample{Name: "tuple"}), v)
	})

	t.Run("wrong payload type", func(t *testing.T) {
		_, err := Int64StreamCodec.Encode("not a number")
		assert.True(t, errors.Is(err, ErrUnexpectedType))
	})
}
