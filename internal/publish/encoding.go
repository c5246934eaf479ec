// Package publish fans vital-sign snapshots out to message brokers.
package publish

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/vitals.report/internal/vitals/pipeline"
)

// Encoding selects the payload format of published snapshots.
type Encoding int

const (
	EncodingJSON  Encoding = iota // The snapshot's JSON form
	EncodingProto                 // The JSON form carried in a google.protobuf.Struct
)

func (e Encoding) String() string {
	switch e {
	case EncodingJSON:
		return "json"
	case EncodingProto:
		return "proto"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// ParseEncoding maps "json" or "proto" to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "json":
		return EncodingJSON, nil
	case "proto", "protobuf":
		return EncodingProto, nil
	}
	return 0, fmt.Errorf("unknown encoding %q (want json or proto)", s)
}

// ContentType is the MIME type of the encoding.
func (e Encoding) ContentType() string {
	if e == EncodingProto {
		return "application/x-protobuf"
	}
	return "application/json"
}

// Encode renders snap in the given encoding.
func Encode(snap pipeline.Snapshot, enc Encoding) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if enc == EncodingJSON {
		return data, nil
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build struct: %w", err)
	}
	return proto.Marshal(st)
}

// Decode parses a payload produced by Encode.
func Decode(data []byte, enc Encoding) (pipeline.Snapshot, error) {
	var snap pipeline.Snapshot
	if enc == EncodingProto {
		var st structpb.Struct
		if err := proto.Unmarshal(data, &st); err != nil {
			return snap, fmt.Errorf("failed to unmarshal struct: %w", err)
		}
		var err error
		if data, err = json.Marshal(st.AsMap()); err != nil {
			return snap, err
		}
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}
