package output

import (
	"encoding/csv"
	"strconv"

	"github.com/ericogr/yadl/pkg/aggregate"
)

// csvEncoder writes one row per result under a reading_number,timestamp
// header. Appending to a file that already has rows skips the header.
type csvEncoder struct {
	*sink
	w      *csv.Writer
	fields []string
}

func newCSV(s *sink, o Options) Encoder {
	return &csvEncoder{sink: s, w: csv.NewWriter(s), fields: o.Fields}
}

func (e *csvEncoder) WriteHeader() error {
	if e.existing {
		return nil
	}
	return e.writeRow(append([]string{"reading_number", "timestamp"}, e.fields...))
}

func (e *csvEncoder) WriteResult(index int, r aggregate.Result) error {
	row := make([]string, 0, len(r.Values)+2)
	row = append(row, strconv.Itoa(index), strconv.FormatInt(r.Timestamp.Unix(), 10))
	for _, v := range r.Values {
		row = append(row, formatFloat(v))
	}
	return e.writeRow(row)
}

func (e *csvEncoder) writeRow(row []string) error {
	if err := e.w.Write(row); err != nil {
		return err
	}
	e.w.Flush()
	return e.w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
