// Package events consumes record lifecycle events from Kafka or Redpanda and
// indexes each poll as one batched session.
package events

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/hashicorp-forge/contentsearch/pkg/record"
	"github.com/hashicorp-forge/contentsearch/pkg/session"
)

// message is the wire form of an event.
type message struct {
	Type     string                 `json:"type"`
	ObjectID string                 `json:"objectId,omitempty"`
	Record   map[string]interface{} `json:"record,omitempty"`
}

// Decode parses a JSON event. The record payload is decoded loosely so hosts
// may send numbers as strings and the reverse.
func Decode(data []byte) (session.Event, error) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return session.Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	ev := session.Event{
		Type:     session.EventType(msg.Type),
		ObjectID: msg.ObjectID,
	}
	switch ev.Type {
	case session.EventAdd, session.EventUpdate, session.EventDelete:
	default:
		return session.Event{}, fmt.Errorf("unknown event type %q", msg.Type)
	}

	if msg.Record != nil {
		rec, err := decodeRecord(msg.Record)
		if err != nil {
			return session.Event{}, err
		}
		ev.Record = rec
	}

	if ev.Record == nil && (ev.Type != session.EventDelete || ev.ObjectID == "") {
		return session.Event{}, fmt.Errorf("%s event requires a record", ev.Type)
	}
	return ev, nil
}

// Encode returns the JSON form of ev.
func Encode(ev session.Event) ([]byte, error) {
	out := struct {
		Type     session.EventType `json:"type"`
		ObjectID string            `json:"objectId,omitempty"`
		Record   *record.Record    `json:"record,omitempty"`
	}{ev.Type, ev.ObjectID, ev.Record}
	return json.Marshal(out)
}

func decodeRecord(raw map[string]interface{}) (*record.Record, error) {
	var rec record.Record
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       stringToUUIDHook,
		WeaklyTypedInput: true,
		Result:           &rec,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create record decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &rec, nil
}

var uuidType = reflect.TypeOf(uuid.UUID{})

func stringToUUIDHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != uuidType {
		return data, nil
	}
	s := data.(string)
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}
