// Package output writes results to files or standard output in the formats
// yadl supports.
package output

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/ericogr/yadl/pkg/aggregate"
	"github.com/ericogr/yadl/pkg/config"
)

// Encoder receives every result of a run, in order.
type Encoder interface {
	WriteResult(index int, r aggregate.Result) error
	// Close flushes and releases the destination. Standard output is left
	// open.
	Close() error
}

// HeaderWriter is implemented by encoders that write something before the
// first result.
type HeaderWriter interface {
	WriteHeader() error
}

// FooterWriter is implemented by encoders that write something after the
// last result.
type FooterWriter interface {
	WriteFooter() error
}

// Options describe what every encoder may need besides its destination.
type Options struct {
	Fields  []string
	RRDFile string
}

type openMode int

const (
	truncate openMode = iota
	appendExisting
)

type registration struct {
	new  func(s *sink, o Options) Encoder
	mode openMode
}

var registry = map[string]registration{
	"json":        {new: newJSON},
	"single_json": {new: newSingleJSON},
	"yaml":        {new: newYAML},
	"csv":         {new: newCSV, mode: appendExisting},
	"xml":         {new: newXML},
	"rrd":         {new: newRRD, mode: appendExisting},
	"console":     {new: newConsole},
}

// Names lists the supported output formats.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func lookup(name string) (registration, error) {
	r, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return registration{}, config.Errorf("output", "unknown output %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return r, nil
}

// Validate checks that name is a known output format.
func Validate(name string) error {
	_, err := lookup(name)
	return err
}

// Open creates the encoder called name writing to filename, or to standard
// output when filename is empty. csv and rrd append to an existing file,
// every other format replaces it.
func Open(name, filename string, o Options) (Encoder, error) {
	r, err := lookup(name)
	if err != nil {
		return nil, err
	}
	s, err := openSink(filename, r.mode)
	if err != nil {
		return nil, err
	}
	return r.new(s, o), nil
}

// sink is where an encoder writes.
type sink struct {
	io.Writer
	// file is nil for standard output
	file *os.File
	// existing is set when an appended file already held data
	existing bool
}

type stdout struct{}

func (stdout) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func openSink(filename string, mode openMode) (*sink, error) {
	if filename == "" {
		return &sink{Writer: stdout{}}, nil
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if mode == appendExisting {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(filename, flags, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open output")
	}
	s := &sink{Writer: f, file: f}
	if mode == appendExisting {
		st, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, errors.Wrap(err, "open output")
		}
		s.existing = st.Size() > 0
	}
	return s, nil
}

// rewind empties the file so the next write replaces its contents. It does
// nothing on standard output.
func (s *sink) rewind() error {
	if s.file == nil {
		return nil
	}
	if err := s.file.Truncate(0); err != nil {
		return err
	}
	_, err := s.file.Seek(0, io.SeekStart)
	return err
}

func (s *sink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
