package scenario

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"landcharges/assist/internal/domain"
)

//go:embed payloads/*.json
var payloadFS embed.FS

const (
	type1InitialPayload    = "payloads/type1_initial.json"
	type1RectifyPayload    = "payloads/type1_rectify.json"
	Type1RectificationName = "type1-rectification"
)

// Payloads are the two request bodies a rectification scenario sends.
type Payloads struct {
	Initial       domain.Registration
	Rectification domain.Registration
}

// Type1Rectification returns the built-in C1 registration and its rectification.
func Type1Rectification() (Payloads, error) {
	initial, err := decodeEmbedded(type1InitialPayload)
	if err != nil {
		return Payloads{}, err
	}

	rectify, err := decodeEmbedded(type1RectifyPayload)
	if err != nil {
		return Payloads{}, err
	}

	return Payloads{Initial: initial, Rectification: rectify}, nil
}

// LoadRegistrationFile reads a registration body from a JSON file on disk.
func LoadRegistrationFile(path string) (domain.Registration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("read payload: %w", err)
	}

	reg, err := decodeRegistration(data)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("payload %s: %w", path, err)
	}
	return reg, nil
}

func decodeEmbedded(name string) (domain.Registration, error) {
	data, err := payloadFS.ReadFile(name)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("read embedded payload: %w", err)
	}

	reg, err := decodeRegistration(data)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("payload %s: %w", name, err)
	}
	return reg, nil
}

func decodeRegistration(data []byte) (domain.Registration, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var reg domain.Registration
	if err := dec.Decode(&reg); err != nil {
		return domain.Registration{}, fmt.Errorf("decode registration: %w", err)
	}
	return reg, nil
}
