package domain

import (
	"encoding/json"
	"fmt"
)

// StatusUpdate is the ordered trace of one run. Items keep insertion order;
// they are never re-sorted by time.
type StatusUpdate struct {
	Items []Record
}

// NewStatusUpdate returns an empty trace.
func NewStatusUpdate() *StatusUpdate {
	return &StatusUpdate{Items: []Record{}}
}

// Add appends a record to the trace.
func (u *StatusUpdate) Add(r Record) {
	u.Items = append(u.Items, r)
}

// Clear drops every record while keeping the trace itself.
func (u *StatusUpdate) Clear() {
	u.Items = []Record{}
}

// Len returns the number of records.
func (u *StatusUpdate) Len() int {
	if u == nil {
		return 0
	}
	return len(u.Items)
}

// Since returns the records appended after the first n.
func (u *StatusUpdate) Since(n int) []Record {
	if u == nil || n >= len(u.Items) {
		return nil
	}
	if n < 0 {
		n = 0
	}
	return u.Items[n:]
}

type statusUpdateWire struct {
	Items []json.RawMessage `json:"items"`
}

// MarshalJSON encodes the trace as {"items": [...]}.
func (u StatusUpdate) MarshalJSON() ([]byte, error) {
	wire := statusUpdateWire{Items: make([]json.RawMessage, 0, len(u.Items))}
	for i, item := range u.Items {
		data, err := MarshalRecord(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		wire.Items = append(wire.Items, data)
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes {"items": [...]} through the record factory.
func (u *StatusUpdate) UnmarshalJSON(data []byte) error {
	var wire statusUpdateWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	items := make([]Record, 0, len(wire.Items))
	for i, raw := range wire.Items {
		rec, err := UnmarshalRecord(raw)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, rec)
	}
	u.Items = items
	return nil
}

// ToWire returns the mapping form {"items": [<record>, ...]}.
func (u *StatusUpdate) ToWire() (map[string]any, error) {
	items := make([]any, 0, u.Len())
	for _, item := range u.Items {
		m, err := ToWire(item)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return map[string]any{"items": items}, nil
}

// StatusUpdateFromJSON decodes a stored trace.
func StatusUpdateFromJSON(data []byte) (*StatusUpdate, error) {
	u := NewStatusUpdate()
	if err := json.Unmarshal(data, u); err != nil {
		return nil, fmt.Errorf("decode status update: %w", err)
	}
	return u, nil
}
