package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// MarshalRecord encodes r as one flat JSON object with the envelope, the
// payload and the "type" tag side by side.
func MarshalRecord(r Record) ([]byte, error) {
	if r == nil {
		return nil, errors.New("marshal status record: nil record")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal %s record: %w", r.Type(), err)
	}
	return sjson.SetBytes(data, "type", string(r.Type()))
}

// UnmarshalRecord rebuilds a record from its JSON wire form, dispatching on
// the "type" tag only.
func UnmarshalRecord(data []byte) (Record, error) {
	tag := gjson.GetBytes(data, "type")
	if !tag.Exists() || tag.Type != gjson.String {
		return nil, fmt.Errorf("%w: missing type tag", ErrUnrecognizedRecordType)
	}

	switch RecordType(tag.Str) {
	case RecordAgentStarted:
		return decodeAs[AgentStarted](data)
	case RecordAgentFinished:
		return decodeAs[AgentFinished](data)
	case RecordAgentIteration:
		return decodeAs[AgentIteration](data)
	case RecordAgentRequest:
		return decodeAs[AgentRequest](data)
	case RecordAgentResponse:
		return decodeAs[AgentResponse](data)
	case RecordAgentChatHistory:
		return decodeAs[AgentChatHistory](data)
	case RecordSystemMessage:
		return decodeAs[SystemMessage](data)
	case RecordProviderRequest:
		return decodeAs[ProviderRequest](data)
	case RecordProviderResponse:
		return decodeAs[ProviderResponse](data)
	case RecordTextGenerated:
		return decodeAs[TextGenerated](data)
	case RecordToolSelected:
		return decodeAs[ToolSelected](data)
	case RecordToolStarted:
		return decodeAs[ToolStarted](data)
	case RecordToolFinished:
		return decodeAs[ToolFinished](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnrecognizedRecordType, tag.Str)
	}
}

func decodeAs[T Record](data []byte) (Record, error) {
	var rec T
	if err := decodeJSON(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal %s record: %w", rec.Type(), err)
	}
	return rec, nil
}

// ToWire returns the flat mapping form of r.
func ToWire(r Record) (map[string]any, error) {
	data, err := MarshalRecord(r)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := decodeJSON(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s wire form: %w", r.Type(), err)
	}
	return out, nil
}

// FromWire is the inverse of ToWire.
func FromWire(m map[string]any) (Record, error) {
	if _, ok := m["type"].(string); !ok {
		return nil, fmt.Errorf("%w: missing type tag", ErrUnrecognizedRecordType)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode wire form: %w", err)
	}
	return UnmarshalRecord(data)
}

// decodeJSON keeps numbers inside free-form payloads as json.Number so that
// integers beyond float64 precision survive a store round trip.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
