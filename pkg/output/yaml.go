package output

import (
	"bytes"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ericogr/yadl/pkg/aggregate"
)

// yamlEncoder writes a "result" list with one mapping per result.
type yamlEncoder struct {
	*sink
}

func newYAML(s *sink, o Options) Encoder { return &yamlEncoder{sink: s} }

func (e *yamlEncoder) WriteHeader() error {
	_, err := e.Write([]byte("result:\n"))
	return err
}

func (e *yamlEncoder) WriteResult(index int, r aggregate.Result) error {
	item := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value interface{}) error {
		k := &yaml.Node{}
		v := &yaml.Node{}
		if err := k.Encode(key); err != nil {
			return err
		}
		if err := v.Encode(value); err != nil {
			return err
		}
		item.Content = append(item.Content, k, v)
		return nil
	}
	for i, f := range r.Fields {
		if err := add(f, r.Values[i]); err != nil {
			return errors.Wrap(err, "yaml")
		}
		if u := r.Unit(i); u != "" {
			if err := add(f+"_unit", u); err != nil {
				return errors.Wrap(err, "yaml")
			}
		}
	}
	if err := add("timestamp", r.Timestamp.Unix()); err != nil {
		return errors.Wrap(err, "yaml")
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{item}}); err != nil {
		return errors.Wrap(err, "yaml")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "yaml")
	}
	_, err := e.Write(buf.Bytes())
	return err
}
