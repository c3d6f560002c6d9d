package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodePayload maps an action's payload onto a typed struct.
// It honors `json` field tags so payloads decoded from JSON transports and
// payloads built in-process decode identically.
func DecodePayload(action Action, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "json",
	})
	if err != nil {
		return fmt.Errorf("failed to build payload decoder: %w", err)
	}

	if err := dec.Decode(action.Payload); err != nil {
		return fmt.Errorf("failed to decode payload of %q: %w", action.Name, err)
	}
	return nil
}
