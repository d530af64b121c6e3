package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// jsonKind is the JSON type a Loose field is written back as
type jsonKind int

const (
	kindString jsonKind = iota
	kindNumber
	kindBool
)

// looseField maps a JSON key to a Loose field of T
type looseField[T any] struct {
	key  string
	kind jsonKind
	get  func(*T) *Loose
}

// kindOf reports the JSON type of a received value; null and garbage fall
// back to hint
func kindOf(raw json.RawMessage, hint jsonKind) jsonKind {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return hint
	}
	switch c := raw[0]; {
	case c == '"':
		return kindString
	case c == 't' || c == 'f':
		return kindBool
	case c == '-' || (c >= '0' && c <= '9'):
		return kindNumber
	}
	return hint
}

// looseText is the Loose form of a received value; ok is false when it is
// not a scalar
func looseText(raw json.RawMessage) (Loose, bool) {
	var l Loose
	if err := l.UnmarshalJSON(raw); err != nil {
		return "", false
	}
	return l, true
}

// encodeLoose writes v as kind. Text that does not parse as the kind stays
// a string, and an emptied number or boolean becomes null.
func encodeLoose(v Loose, kind jsonKind) (json.RawMessage, error) {
	text := strings.TrimSpace(string(v))
	switch kind {
	case kindNumber:
		if text == "" {
			return json.RawMessage("null"), nil
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return json.Marshal(f)
		}
	case kindBool:
		if text == "" {
			return json.RawMessage("null"), nil
		}
		if b, err := strconv.ParseBool(text); err == nil {
			return json.Marshal(b)
		}
	}
	return json.Marshal(string(v))
}

// mergeLoose writes v under key into out. A value equal to what was received
// keeps its original bytes; a key never received is left out while empty.
// raw == nil marks a record built in code, whose fields are all written.
func mergeLoose(out, raw map[string]json.RawMessage, key string, v Loose, hint jsonKind) error {
	prev, had := raw[key]
	if had {
		if text, ok := looseText(prev); ok && text == v {
			return nil
		}
	} else if raw != nil && v == "" {
		return nil
	}
	enc, err := encodeLoose(v, kindOf(prev, hint))
	if err != nil {
		return err
	}
	out[key] = enc
	return nil
}

func copyRaw(raw map[string]json.RawMessage, extra int) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(raw)+extra)
	for k, v := range raw {
		out[k] = v
	}
	return out
}
