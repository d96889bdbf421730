package mqtt

import (
	"fmt"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/pkg/errors"

	"github.com/robotalks/diffbot/pkg/robot"
)

// NewStruct converts JSON-like values into a protobuf Struct.
func NewStruct(fields map[string]interface{}) (*structpb.Struct, error) {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(fields))}
	for key, val := range fields {
		v, err := newValue(val)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", key)
		}
		s.Fields[key] = v
	}
	return s, nil
}

func newValue(val interface{}) (*structpb.Value, error) {
	switch v := val.(type) {
	case nil:
		return &structpb.Value{Kind: &structpb.Value_NullValue{NullValue: structpb.NullValue_NULL_VALUE}}, nil
	case bool:
		return &structpb.Value{Kind: &structpb.Value_BoolValue{BoolValue: v}}, nil
	case int:
		return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: float64(v)}}, nil
	case float64:
		return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}, nil
	case string:
		return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: v}}, nil
	case map[string]interface{}:
		s, err := NewStruct(v)
		if err != nil {
			return nil, err
		}
		return &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: s}}, nil
	case []interface{}:
		lst := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(v))}
		for _, item := range v {
			iv, err := newValue(item)
			if err != nil {
				return nil, err
			}
			lst.Values = append(lst.Values, iv)
		}
		return &structpb.Value{Kind: &structpb.Value_ListValue{ListValue: lst}}, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", val)
}

// EncodeStatus serializes a status snapshot as a protobuf Struct.
func EncodeStatus(s robot.Status) ([]byte, error) {
	st, err := NewStruct(s.Fields())
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

// DecodeStatus parses a payload produced by EncodeStatus.
func DecodeStatus(payload []byte) (*structpb.Struct, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(payload, &st); err != nil {
		return nil, errors.Wrap(err, "decode status")
	}
	return &st, nil
}

// StatusJSON renders a status payload as JSON.
func StatusJSON(payload []byte) (string, error) {
	st, err := DecodeStatus(payload)
	if err != nil {
		return "", err
	}
	return (&jsonpb.Marshaler{}).MarshalToString(st)
}
