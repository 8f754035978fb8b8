package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tinylib/msgp/msgp"
)

var (
	ErrUnknownCodec = errors.New("protocol: unknown codec")
	ErrEmptyAction  = errors.New("protocol: envelope has no action type")
)

// Codec selects how envelopes are framed on a websocket. JSON travels in
// text frames, msgpack in binary frames.
type Codec string

const (
	CodecJSON    Codec = "json"
	CodecMsgpack Codec = "msgpack"
)

// ParseCodec maps a config or query value onto a Codec. Empty means JSON.
func ParseCodec(s string) (Codec, error) {
	switch Codec(s) {
	case "", CodecJSON:
		return CodecJSON, nil
	case CodecMsgpack:
		return CodecMsgpack, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCodec, s)
}

// Binary reports whether frames in this codec are binary.
func (c Codec) Binary() bool {
	return c == CodecMsgpack
}

// Pool of scratch buffers for msgpack encoding
var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 512)
		return &b
	},
}

// Encode serializes an envelope in this codec.
func (c Codec) Encode(env *Envelope) ([]byte, error) {
	switch c {
	case CodecJSON, "":
		return json.Marshal(env)
	case CodecMsgpack:
		bufp := bufferPool.Get().(*[]byte)
		defer bufferPool.Put(bufp)

		out, err := env.MarshalMsg((*bufp)[:0])
		if err != nil {
			return nil, err
		}
		*bufp = out

		// Copy so callers never alias the pooled buffer
		data := make([]byte, len(out))
		copy(data, out)
		return data, nil
	default:
		return nil, ErrUnknownCodec
	}
}

// Decode parses an envelope in this codec.
func (c Codec) Decode(data []byte) (Envelope, error) {
	var env Envelope
	switch c {
	case CodecJSON, "":
		if err := json.Unmarshal(data, &env); err != nil {
			return Envelope{}, err
		}
	case CodecMsgpack:
		if _, err := env.UnmarshalMsg(data); err != nil {
			return Envelope{}, err
		}
	default:
		return Envelope{}, ErrUnknownCodec
	}
	if env.ActionType == "" {
		return Envelope{}, ErrEmptyAction
	}
	return env, nil
}

// DecodeFrame picks the codec from the websocket frame kind.
func DecodeFrame(binary bool, data []byte) (Envelope, error) {
	if binary {
		return CodecMsgpack.Decode(data)
	}
	return CodecJSON.Decode(data)
}

// MarshalMsg appends the msgpack encoding of e to b. ActionData is carried
// as its raw JSON bytes.
func (e *Envelope) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.Require(b, e.Msgsize())
	o = msgp.AppendMapHeader(o, 7)
	o = msgp.AppendString(o, "user_id")
	o = msgp.AppendString(o, e.UserID)
	o = msgp.AppendString(o, "player_index")
	o = msgp.AppendInt(o, e.PlayerIndex)
	o = msgp.AppendString(o, "action_type")
	o = msgp.AppendString(o, string(e.ActionType))
	o = msgp.AppendString(o, "action_data")
	o = msgp.AppendBytes(o, e.ActionData)
	o = msgp.AppendString(o, "origin")
	o = msgp.AppendString(o, e.Origin)
	o = msgp.AppendString(o, "seq")
	o = msgp.AppendUint64(o, e.Seq)
	o = msgp.AppendString(o, "sent_at")
	o = msgp.AppendTime(o, e.SentAt)
	return o, nil
}

// UnmarshalMsg decodes e from msgpack and returns the remaining bytes.
// Unknown keys are skipped.
func (e *Envelope) UnmarshalMsg(bts []byte) ([]byte, error) {
	sz, bts, err := msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return bts, msgp.WrapError(err)
	}
	for range sz {
		var field []byte
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			return bts, msgp.WrapError(err)
		}
		switch msgp.UnsafeString(field) {
		case "user_id":
			e.UserID, bts, err = msgp.ReadStringBytes(bts)
		case "player_index":
			e.PlayerIndex, bts, err = msgp.ReadIntBytes(bts)
		case "action_type":
			var s string
			s, bts, err = msgp.ReadStringBytes(bts)
			e.ActionType = ActionType(s)
		case "action_data":
			var raw []byte
			raw, bts, err = msgp.ReadBytesBytes(bts, nil)
			e.ActionData = json.RawMessage(raw)
		case "origin":
			e.Origin, bts, err = msgp.ReadStringBytes(bts)
		case "seq":
			e.Seq, bts, err = msgp.ReadUint64Bytes(bts)
		case "sent_at":
			e.SentAt, bts, err = msgp.ReadTimeBytes(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return bts, msgp.WrapError(err, string(field))
		}
	}
	return bts, nil
}

// Msgsize is an upper bound on the encoded size of e.
func (e *Envelope) Msgsize() int {
	return 1 + 8 + msgp.StringPrefixSize + len(e.UserID) +
		13 + msgp.IntSize +
		12 + msgp.StringPrefixSize + len(e.ActionType) +
		12 + msgp.BytesPrefixSize + len(e.ActionData) +
		7 + msgp.StringPrefixSize + len(e.Origin) +
		4 + msgp.Uint64Size +
		8 + msgp.TimeSize
}
