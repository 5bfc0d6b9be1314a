package signal

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"
)

type jsonSignal struct {
	Label  *string   `json:"label"`
	Values []float64 `json:"values"`
}

// Decode parses a payload. Accepted forms are a bare label ("1", "stim1"),
// a comma separated tuple of numbers whose first field is also the label
// ("0.3, 0.5, 90"), and a JSON object {"label": "1", "values": [...]}.
func Decode(payload []byte) (Signal, error) {
	if !utf8.Valid(payload) {
		return Signal{}, &DecodeError{Payload: string(payload), Reason: "invalid utf-8"}
	}
	raw := strings.TrimSpace(string(payload))
	if raw == "" {
		return Signal{}, &DecodeError{Payload: raw, Reason: "empty payload"}
	}

	switch {
	case strings.HasPrefix(raw, "{"):
		return decodeJSON(raw)
	case strings.Contains(raw, ","):
		return decodeTuple(raw)
	}

	sig := Signal{Label: raw, Raw: raw}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		sig.Values = []float64{v}
	}
	return sig, nil
}

func decodeJSON(raw string) (Signal, error) {
	var js jsonSignal
	if err := json.Unmarshal([]byte(raw), &js); err != nil {
		return Signal{}, &DecodeError{Payload: raw, Reason: err.Error()}
	}
	sig := Signal{Values: js.Values, Raw: raw}
	switch {
	case js.Label != nil && strings.TrimSpace(*js.Label) != "":
		sig.Label = strings.TrimSpace(*js.Label)
	case len(js.Values) > 0:
		sig.Label = strconv.FormatFloat(js.Values[0], 'g', -1, 64)
	default:
		return Signal{}, &DecodeError{Payload: raw, Reason: "no label or values"}
	}
	return sig, nil
}

func decodeTuple(raw string) (Signal, error) {
	fields := strings.Split(raw, ",")
	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Signal{}, &DecodeError{Payload: raw, Reason: "non-numeric field " + strconv.Quote(f)}
		}
		values = append(values, v)
	}
	return Signal{Label: strings.TrimSpace(fields[0]), Values: values, Raw: raw}, nil
}
