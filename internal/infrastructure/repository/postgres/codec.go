package postgres

import (
	"fmt"

	sonic "github.com/bytedance/sonic"
)

// Breakdown maps are stored as a versioned JSONB envelope so the column
// format can evolve without a table rewrite. Rows written before the
// envelope existed hold a bare object and decode as version zero.
const breakdownVersion = 1

type breakdownEnvelope struct {
	Version int                `json:"v"`
	Values  map[string]float64 `json:"values"`
}

func encodeBreakdown(values map[string]float64) ([]byte, error) {
	if values == nil {
		values = map[string]float64{}
	}
	raw, err := sonic.Marshal(breakdownEnvelope{Version: breakdownVersion, Values: values})
	if err != nil {
		return nil, fmt.Errorf("encode breakdown: %w", err)
	}
	return raw, nil
}

func decodeBreakdown(raw []byte) (map[string]float64, error) {
	if len(raw) == 0 {
		return map[string]float64{}, nil
	}

	var envelope breakdownEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err == nil && envelope.Version >= breakdownVersion && envelope.Values != nil {
		return envelope.Values, nil
	}

	// Legacy bare object.
	var values map[string]float64
	if err := sonic.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode breakdown: %w", err)
	}
	if values == nil {
		values = map[string]float64{}
	}
	return values, nil
}

func encodeSlots(slots []string) ([]byte, error) {
	if slots == nil {
		slots = []string{}
	}
	raw, err := sonic.Marshal(slots)
	if err != nil {
		return nil, fmt.Errorf("encode eligible slots: %w", err)
	}
	return raw, nil
}

func decodeSlots(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var slots []string
	if err := sonic.Unmarshal(raw, &slots); err != nil {
		return nil, fmt.Errorf("decode eligible slots: %w", err)
	}
	return slots, nil
}
