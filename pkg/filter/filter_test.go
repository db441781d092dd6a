package filter

import (
	"testing"

	"go.viam.com/test"
)

func TestFilters(t *testing.T) {
	for _, tc := range []struct {
		filter string
		in     []float64
		want   float64
	}{
		{"median", []float64{1, 2, 3, 4}, 2},
		{"median", []float64{1, 2, 3}, 2},
		{"median", []float64{7}, 7},
		{"mean", []float64{2, 4, 6}, 4},
		{"range", []float64{1, 5, 9}, 8},
		{"mode", []float64{1, 1, 2, 3, 3, 3}, 3},
		{"mode", []float64{1, 1, 2, 2, 3}, 1},
		{"mode", []float64{1, 2, 3}, 1},
		{"sum", []float64{1.5, 2.5, 3}, 7},
		{"min", []float64{-4, 0, 9}, -4},
		{"max", []float64{-4, 0, 9}, 9},
	} {
		t.Run(tc.filter, func(t *testing.T) {
			f, err := Lookup(tc.filter)
			test.That(t, err, test.ShouldBeNil)
			got, err := f(tc.in)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, got, test.ShouldAlmostEqual, tc.want)
		})
	}
}

func TestLookup(t *testing.T) {
	f, err := Lookup("")
	test.That(t, err, test.ShouldBeNil)
	got, err := f([]float64{1, 2, 3, 4})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldEqual, 2)

	_, err = Lookup("MEAN")
	test.That(t, err, test.ShouldBeNil)

	_, err = Lookup("average")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "--filter")
}

func TestEmptyInput(t *testing.T) {
	for _, name := range Names() {
		f, err := Lookup(name)
		test.That(t, err, test.ShouldBeNil)
		_, err = f(nil)
		test.That(t, err, test.ShouldNotBeNil)
	}
}
