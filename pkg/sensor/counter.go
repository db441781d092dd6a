package sensor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"periph.io/x/conn/v3/gpio"

	"github.com/ericogr/yadl/pkg/config"
	"github.com/ericogr/yadl/pkg/logging"
)

// edgePoll bounds how long the counting goroutine blocks before it checks
// whether it was stopped.
const edgePoll = 100 * time.Millisecond

var edges = map[string]gpio.Edge{
	"rising":  gpio.RisingEdge,
	"falling": gpio.FallingEdge,
	"both":    gpio.BothEdges,
}

func parseEdge(name string) (gpio.Edge, error) {
	e, ok := edges[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return gpio.NoEdge, config.Errorf("interrupt_edge", "unknown edge %q (rising|falling|both)", name)
	}
	return e, nil
}

// edgeCounter counts edges on a pin from its own goroutine.
type edgeCounter struct {
	pin   gpio.PinIO
	count *atomic.Int64
	done  chan struct{}
	wg    sync.WaitGroup
}

func startEdgeCounter(pin gpio.PinIO, pull gpio.Pull, edge gpio.Edge) (*edgeCounter, error) {
	if err := pin.In(pull, edge); err != nil {
		return nil, errors.Wrapf(err, "enable edge detection on %s", pin)
	}
	e := &edgeCounter{
		pin:   pin,
		count: atomic.NewInt64(0),
		done:  make(chan struct{}),
	}
	e.wg.Add(1)
	go e.loop()
	return e, nil
}

func (e *edgeCounter) loop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		default:
		}
		if e.pin.WaitForEdge(edgePoll) {
			e.count.Inc()
		}
	}
}

// Total is the number of edges seen since the counter started or was last
// reset.
func (e *edgeCounter) Total() int64 { return e.count.Load() }

// Reset returns the edges counted so far and starts again from zero.
func (e *edgeCounter) Reset() int64 { return e.count.Swap(0) }

func (e *edgeCounter) Stop() error {
	close(e.done)
	e.wg.Wait()
	return e.pin.Halt()
}

// rateMeter turns edge counts into edges per second since the previous call.
type rateMeter struct {
	clk  clock.Clock
	last time.Time
}

func (m *rateMeter) start() { m.last = m.clk.Now() }

func (m *rateMeter) perSecond(n int64) float64 {
	now := m.clk.Now()
	elapsed := now.Sub(m.last).Seconds()
	m.last = now
	if elapsed <= 0 {
		return 0
	}
	return float64(n) / elapsed
}

// counter reports the edge rate on a pin, scaled by --counter_multiplier.
type counter struct {
	pin        gpio.PinIO
	edge       gpio.Edge
	multiplier float64
	logger     logging.Logger

	edges *edgeCounter
	rate  rateMeter
}

func validateCounter(cfg config.Config) error {
	if err := config.RequirePin("gpio_pin", cfg.GPIOPin); err != nil {
		return err
	}
	_, err := parseEdge(cfg.InterruptEdge)
	return err
}

func newCounter(d Deps) (Sensor, error) {
	edge, err := parseEdge(d.Config.InterruptEdge)
	if err != nil {
		return nil, err
	}
	pin, err := d.Board.GPIO(d.Config.GPIOPin)
	if err != nil {
		return nil, err
	}
	return &counter{
		pin:        pin,
		edge:       edge,
		multiplier: d.Config.CounterMultiplier,
		logger:     d.Logger,
		rate:       rateMeter{clk: d.Clock},
	}, nil
}

func (s *counter) Init(ctx context.Context) error {
	e, err := startEdgeCounter(s.pin, gpio.PullNoChange, s.edge)
	if err != nil {
		return err
	}
	s.edges = e
	s.rate.start()
	return nil
}

func (s *counter) Fields() []string { return []string{"value"} }

func (s *counter) Read(ctx context.Context) (Sample, error) {
	if s.edges == nil {
		return Sample{}, errors.New("counter not initialized")
	}
	n := s.edges.Reset()
	rate := s.rate.perSecond(n)
	s.logger.Debugf("counter: %d edges, %.3f/s", n, rate)
	return Sample{Values: []float64{rate * s.multiplier}}, nil
}

func (s *counter) Close() error {
	if s.edges == nil {
		return nil
	}
	err := s.edges.Stop()
	s.edges = nil
	return err
}
