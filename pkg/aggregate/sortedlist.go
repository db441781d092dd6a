package aggregate

import "sort"

// SortedList keeps the samples of one field in ascending order.
type SortedList struct {
	values []float64
}

func NewSortedList(capacity int) *SortedList {
	return &SortedList{values: make([]float64, 0, capacity)}
}

// Insert adds v after any values equal to it.
func (l *SortedList) Insert(v float64) {
	i := sort.Search(len(l.values), func(i int) bool { return l.values[i] > v })
	l.values = append(l.values, 0)
	copy(l.values[i+1:], l.values[i:])
	l.values[i] = v
}

// Trim drops the k lowest and the k highest values. It does nothing for
// k <= 0 and empties the list when 2k >= Len.
func (l *SortedList) Trim(k int) {
	if k <= 0 {
		return
	}
	if 2*k >= len(l.values) {
		l.values = l.values[:0]
		return
	}
	l.values = l.values[k : len(l.values)-k]
}

// Values returns the list in ascending order. The slice must not be modified.
func (l *SortedList) Values() []float64 { return l.values }

func (l *SortedList) Len() int { return len(l.values) }
