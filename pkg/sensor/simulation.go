package sensor

import (
	"context"
	"math/rand"
	"sync"

	"github.com/ericogr/yadl/pkg/adc"
)

// simulatedMax is the full scale of the simulated 10-bit converter.
const simulatedMax = 1023

// simulation produces random analog readings so a pipeline can be tried out
// without any hardware attached.
type simulation struct {
	millivolts int
	multiplier float64

	mu  sync.Mutex
	rnd *rand.Rand
}

func newSimulation(d Deps) (Sensor, error) {
	return &simulation{
		millivolts: d.Config.ADCMillivolts,
		multiplier: d.Config.ADCMultiplier,
		rnd:        rand.New(rand.NewSource(d.Clock.Now().UnixNano())),
	}, nil
}

func (s *simulation) Fields() []string { return []string{"reading", "millivolts"} }

func (s *simulation) Read(ctx context.Context) (Sample, error) {
	s.mu.Lock()
	raw := s.rnd.Intn(simulatedMax + 1)
	s.mu.Unlock()
	return Sample{
		Values: []float64{float64(raw), adc.Millivolts(raw, simulatedMax, s.millivolts, s.multiplier)},
		Units:  []string{"", "mV"},
	}, nil
}

func (s *simulation) Close() error { return nil }
