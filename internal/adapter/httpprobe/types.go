package httpprobe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// VersionInfo is the validated body of a version endpoint
type VersionInfo struct {
	Service string
	Version string
}

var errNotObject = errors.New("body is not a JSON object")

// ParseVersionBody strictly decodes a version endpoint body. The body must
// be a JSON object; "service" and "version" are optional but must be
// strings when present. Other fields are ignored.
func ParseVersionBody(body []byte) (VersionInfo, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return VersionInfo{}, errNotObject
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return VersionInfo{}, fmt.Errorf("parse body: %w", err)
	}

	var info VersionInfo
	var err error
	if info.Service, err = optionalString(fields, "service"); err != nil {
		return VersionInfo{}, err
	}
	if info.Version, err = optionalString(fields, "version"); err != nil {
		return VersionInfo{}, err
	}

	return info, nil
}

func optionalString(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("field %q is not a string", name)
	}
	return s, nil
}
