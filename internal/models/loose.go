package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Loose is a JSON scalar kept in its string form. The PHP API and the admin
// forms disagree on types (5 vs "5"), so numbers, booleans and strings all
// decode into the same comparable text and null becomes "".
type Loose string

func (l *Loose) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Loose(s)
	case '{', '[':
		return fmt.Errorf("expected a scalar value, got %q", data[:1])
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*l = Loose(strconv.FormatBool(b))
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", data, err)
		}
		*l = Loose(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return nil
}

func (l Loose) String() string { return string(l) }

// Float parses the value as a number.
func (l Loose) Float() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(l)), 64)
}

func looseFloat(f float64) Loose {
	return Loose(strconv.FormatFloat(f, 'f', -1, 64))
}

// Amount is a decimal that accepts a JSON number or a numeric string.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	var l Loose
	if err := l.UnmarshalJSON(data); err != nil {
		return err
	}
	if strings.TrimSpace(string(l)) == "" {
		*a = 0
		return nil
	}
	f, err := l.Float()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid amount %q", string(l))
	}
	*a = Amount(f)
	return nil
}

// FlexInt is an integer that accepts a JSON number or a numeric string.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	var a Amount
	if err := a.UnmarshalJSON(data); err != nil {
		return err
	}
	*n = FlexInt(math.Round(float64(a)))
	return nil
}
