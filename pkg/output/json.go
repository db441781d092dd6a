package output

import (
	"bytes"
	"math"

	"github.com/goccy/go-json"

	"github.com/ericogr/yadl/pkg/aggregate"
)

// jsonEncoder writes every result into one document:
//
//	{"result": [
//	  {"temperature": 21.5, "temperature_unit": "C", "timestamp": 1467648942}
//	]}
type jsonEncoder struct {
	*sink
	written int
}

func newJSON(s *sink, o Options) Encoder { return &jsonEncoder{sink: s} }

func (e *jsonEncoder) WriteHeader() error {
	_, err := e.Write([]byte("{\"result\": [\n"))
	return err
}

func (e *jsonEncoder) WriteResult(index int, r aggregate.Result) error {
	var buf bytes.Buffer
	if e.written > 0 {
		buf.WriteString(",\n")
	}
	buf.WriteString("  ")
	if err := appendJSONResult(&buf, r); err != nil {
		return err
	}
	if _, err := e.Write(buf.Bytes()); err != nil {
		return err
	}
	e.written++
	return nil
}

func (e *jsonEncoder) WriteFooter() error {
	_, err := e.Write([]byte("\n]}\n"))
	return err
}

// singleJSON keeps only the latest result in its file, for consumers that
// poll it. On standard output it writes one object per line.
type singleJSON struct {
	*sink
}

func newSingleJSON(s *sink, o Options) Encoder { return &singleJSON{sink: s} }

func (e *singleJSON) WriteResult(index int, r aggregate.Result) error {
	var buf bytes.Buffer
	if err := appendJSONResult(&buf, r); err != nil {
		return err
	}
	buf.WriteByte('\n')
	if err := e.rewind(); err != nil {
		return err
	}
	_, err := e.Write(buf.Bytes())
	return err
}

// appendJSONResult writes r as one object, keeping the sensor's field order.
func appendJSONResult(buf *bytes.Buffer, r aggregate.Result) error {
	buf.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		if err := appendJSONPair(buf, f, jsonNumber(r.Values[i])); err != nil {
			return err
		}
		if u := r.Unit(i); u != "" {
			buf.WriteString(", ")
			if err := appendJSONPair(buf, f+"_unit", u); err != nil {
				return err
			}
		}
	}
	if len(r.Fields) > 0 {
		buf.WriteString(", ")
	}
	if err := appendJSONPair(buf, "timestamp", r.Timestamp.Unix()); err != nil {
		return err
	}
	buf.WriteByte('}')
	return nil
}

func appendJSONPair(buf *bytes.Buffer, key string, value interface{}) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteString(": ")
	buf.Write(v)
	return nil
}

// jsonNumber maps the values JSON cannot represent to null.
func jsonNumber(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
