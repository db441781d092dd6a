package output

import (
	"strconv"
	"strings"

	"github.com/ericogr/yadl/pkg/aggregate"
)

// rrdEncoder writes rrdtool update lines. With a database name the output
// can be piped into "rrdtool -"; without one each line is just the
// timestamp:value:... argument.
type rrdEncoder struct {
	*sink
	database string
}

func newRRD(s *sink, o Options) Encoder { return &rrdEncoder{sink: s, database: o.RRDFile} }

func (e *rrdEncoder) WriteResult(index int, r aggregate.Result) error {
	parts := make([]string, 0, len(r.Values)+1)
	parts = append(parts, strconv.FormatInt(r.Timestamp.Unix(), 10))
	for _, v := range r.Values {
		parts = append(parts, formatFloat(v))
	}
	line := strings.Join(parts, ":")
	if e.database != "" {
		line = "update " + e.database + " " + line
	}
	_, err := e.Write([]byte(line + "\n"))
	return err
}
