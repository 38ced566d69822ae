package tracelog

import (
	"encoding/json"
	"fmt"

	"dporsched/internal/model"
)

// PayloadCodec serializes and deserializes model.Payload values for
// persistence. Encode returns a kind tag alongside the opaque bytes so
// Decode can dispatch back to the right concrete type.
type PayloadCodec interface {
	Encode(p model.Payload) (kind string, data []byte, err error)
	Decode(kind string, data []byte) (model.Payload, error)
}

// BytesCodec is the default PayloadCodec, grounded on the teacher's
// ExecutionTrace fixed-shape JSON encoding: it knows the payload kinds
// defined in internal/model and round-trips each one explicitly rather
// than leaning on interface-typed JSON (which cannot be unmarshaled back
// to a concrete Payload without a registry).
type BytesCodec struct{}

type wireBytesPayload struct {
	Data []byte `json:"data,omitempty"`
}

type wireClockedBytesPayload struct {
	Data     []byte `json:"data,omitempty"`
	Clock    int64  `json:"clock"`
	HasClock bool   `json:"has_clock"`
}

type wireTimerMarker struct {
	Receiver             string `json:"receiver"`
	TimerName            string `json:"timer_name"`
	Repeating            bool   `json:"repeating"`
	Token                string `json:"token,omitempty"`
	CausesClockIncrement bool   `json:"causes_clock_increment"`
	InnerKind            string `json:"inner_kind,omitempty"`
	InnerData            []byte `json:"inner_data,omitempty"`
}

type wireNodesUnreachable struct {
	Unreachable []string `json:"unreachable,omitempty"`
}

// Encode implements PayloadCodec.
func (BytesCodec) Encode(p model.Payload) (string, []byte, error) {
	switch v := p.(type) {
	case nil:
		return "", nil, nil
	case model.BytesPayload:
		b, err := json.Marshal(wireBytesPayload{Data: v.Data})
		return "BytesPayload", b, err
	case model.ClockedBytesPayload:
		b, err := json.Marshal(wireClockedBytesPayload{Data: v.Data, Clock: v.Clock, HasClock: v.HasClock})
		return "ClockedBytesPayload", b, err
	case model.TimerMarker:
		innerKind, innerData, err := (BytesCodec{}).Encode(v.InnerMsg)
		if err != nil {
			return "", nil, fmt.Errorf("tracelog: encode timer inner payload: %w", err)
		}
		b, err := json.Marshal(wireTimerMarker{
			Receiver:             v.Receiver,
			TimerName:            v.TimerName,
			Repeating:            v.Repeating,
			Token:                v.Token,
			CausesClockIncrement: v.CausesClockIncrement,
			InnerKind:            innerKind,
			InnerData:            innerData,
		})
		return "TimerMarker", b, err
	case model.NodesUnreachablePayload:
		b, err := json.Marshal(wireNodesUnreachable{Unreachable: v.Unreachable})
		return "NodesUnreachablePayload", b, err
	default:
		return "", nil, fmt.Errorf("tracelog: BytesCodec cannot encode payload of type %T", p)
	}
}

// Decode implements PayloadCodec.
func (BytesCodec) Decode(kind string, data []byte) (model.Payload, error) {
	switch kind {
	case "":
		return nil, nil
	case "BytesPayload":
		var w wireBytesPayload
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return model.BytesPayload{Data: w.Data}, nil
	case "ClockedBytesPayload":
		var w wireClockedBytesPayload
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return model.ClockedBytesPayload{BytesPayload: model.BytesPayload{Data: w.Data}, Clock: w.Clock, HasClock: w.HasClock}, nil
	case "TimerMarker":
		var w wireTimerMarker
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		inner, err := (BytesCodec{}).Decode(w.InnerKind, w.InnerData)
		if err != nil {
			return nil, fmt.Errorf("tracelog: decode timer inner payload: %w", err)
		}
		return model.TimerMarker{
			Receiver:             w.Receiver,
			TimerName:            w.TimerName,
			InnerMsg:             inner,
			Repeating:            w.Repeating,
			Token:                w.Token,
			CausesClockIncrement: w.CausesClockIncrement,
		}, nil
	case "NodesUnreachablePayload":
		var w wireNodesUnreachable
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return model.NodesUnreachablePayload{Unreachable: w.Unreachable}, nil
	default:
		return nil, fmt.Errorf("tracelog: BytesCodec cannot decode unknown payload kind %q", kind)
	}
}
