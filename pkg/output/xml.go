package output

import (
	"bytes"
	"encoding/xml"

	"github.com/ericogr/yadl/pkg/aggregate"
)

type xmlReading struct {
	XMLName   xml.Name `xml:"reading"`
	Number    int      `xml:"number,attr"`
	Timestamp int64    `xml:"timestamp,attr"`
	Values    []xmlValue
}

type xmlValue struct {
	XMLName xml.Name
	Unit    string `xml:"unit,attr,omitempty"`
	Value   string `xml:",chardata"`
}

// xmlEncoder writes a <readings> document with one <reading> per result and
// one child element per field.
type xmlEncoder struct {
	*sink
}

func newXML(s *sink, o Options) Encoder { return &xmlEncoder{sink: s} }

func (e *xmlEncoder) WriteHeader() error {
	_, err := e.Write([]byte(xml.Header + "<readings>\n"))
	return err
}

func (e *xmlEncoder) WriteResult(index int, r aggregate.Result) error {
	reading := xmlReading{Number: index, Timestamp: r.Timestamp.Unix()}
	for i, f := range r.Fields {
		reading.Values = append(reading.Values, xmlValue{
			XMLName: xml.Name{Local: f},
			Unit:    r.Unit(i),
			Value:   formatFloat(r.Values[i]),
		})
	}
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("  ", "  ")
	if err := enc.Encode(reading); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := e.Write(buf.Bytes())
	return err
}

func (e *xmlEncoder) WriteFooter() error {
	_, err := e.Write([]byte("</readings>\n"))
	return err
}
