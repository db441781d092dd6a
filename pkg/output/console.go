package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/ericogr/yadl/pkg/aggregate"
)

type consoleEncoder struct {
	*sink
}

func newConsole(s *sink, o Options) Encoder { return &consoleEncoder{sink: s} }

func (c *consoleEncoder) WriteResult(index int, r aggregate.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s index=%d", r.Timestamp.Format(time.RFC3339), index)
	for i, f := range r.Fields {
		fmt.Fprintf(&b, " %s=%.6f%s", f, r.Values[i], r.Unit(i))
	}
	b.WriteByte('\n')
	_, err := c.Write([]byte(b.String()))
	return err
}
