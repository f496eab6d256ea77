package eventlog

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	gferrors "github.com/vnykmshr/prodsim/pkg/common/errors"
	"github.com/vnykmshr/prodsim/pkg/common/validation"
)

// Encoding selects how RedisSink serializes entries.
type Encoding string

const (
	// EncodingText publishes the same line WriterSink prints.
	EncodingText Encoding = "text"
	// EncodingJSON publishes a JSON Record.
	EncodingJSON Encoding = "json"
	// EncodingMsgpack publishes a MessagePack Record.
	EncodingMsgpack Encoding = "msgpack"
)

// ParseEncoding validates an encoding name. The empty string means text.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case "", EncodingText:
		return EncodingText, nil
	case EncodingJSON, EncodingMsgpack:
		return Encoding(s), nil
	default:
		return "", gferrors.NewValidationError("eventlog", "encoding", s, "unknown encoding").
			WithHint("use text, json or msgpack")
	}
}

// Record is the structured wire form of a Message.
type Record struct {
	OriginID  string    `json:"origin_id" msgpack:"origin_id"`
	Timestamp time.Time `json:"timestamp" msgpack:"timestamp"`
	Text      string    `json:"text" msgpack:"text"`
}

// Publisher is the subset of a Redis client RedisSink needs.
// *redis.Client and redis.UniversalClient satisfy it.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink mirrors drained entries to a Redis pub/sub channel. Nothing is
// stored; subscribers that are not connected miss the entries.
type RedisSink struct {
	client   Publisher
	channel  string
	encoding Encoding
}

// NewRedisSink creates a RedisSink publishing on channel.
func NewRedisSink(client Publisher, channel string, encoding Encoding) (*RedisSink, error) {
	if err := validation.ValidateNotNil("eventlog", "redis client", client); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotEmpty("eventlog", "channel", channel); err != nil {
		return nil, err
	}
	enc, err := ParseEncoding(string(encoding))
	if err != nil {
		return nil, err
	}
	return &RedisSink{client: client, channel: channel, encoding: enc}, nil
}

// Emit implements Sink. It stops at the first failed publish.
func (s *RedisSink) Emit(ctx context.Context, batch []Message) error {
	for _, m := range batch {
		payload, err := Encode(s.encoding, m)
		if err != nil {
			return gferrors.NewOperationError("eventlog", "Emit", err).WithContext("encode")
		}
		if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
			return gferrors.NewOperationError("eventlog", "Emit", err).WithContext("redis channel " + s.channel)
		}
	}
	return nil
}

// Encode serializes m in the given encoding.
func Encode(encoding Encoding, m Message) ([]byte, error) {
	rec := Record{OriginID: m.OriginID, Timestamp: m.Timestamp.UTC(), Text: m.Text}
	switch encoding {
	case EncodingText, "":
		return []byte(m.String()), nil
	case EncodingJSON:
		return jsoniter.ConfigFastest.Marshal(rec)
	case EncodingMsgpack:
		return msgpack.Marshal(rec)
	default:
		return nil, fmt.Errorf("unknown encoding %q", encoding)
	}
}

// Decode parses a structured payload produced by Encode. Text payloads are
// not decodable.
func Decode(encoding Encoding, data []byte) (Message, error) {
	var rec Record
	var err error
	switch encoding {
	case EncodingJSON:
		err = jsoniter.ConfigFastest.Unmarshal(data, &rec)
	case EncodingMsgpack:
		err = msgpack.Unmarshal(data, &rec)
	default:
		err = fmt.Errorf("cannot decode %q payloads", encoding)
	}
	if err != nil {
		return Message{}, err
	}
	return Message{OriginID: rec.OriginID, Timestamp: rec.Timestamp, Text: rec.Text}, nil
}
