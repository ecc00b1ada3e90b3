package selection

import (
	"slices"
	"testing"
)

func TestTracker_Toggle(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	if !tr.Toggle(3) {
		t.Error("Toggle(3) = false, want true")
	}
	if got := tr.Selected(); !slices.Equal(got, []int{3}) {
		t.Errorf("Selected() = %v after toggle on, want [3]", got)
	}
	if tr.Toggle(3) {
		t.Error("second Toggle(3) = true, want false")
	}
	if !tr.Empty() {
		t.Errorf("Len() = %d, want 0", tr.Len())
	}
}

func TestTracker_SelectedSorted(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	for _, idx := range []int{5, 1, 4, 2} {
		tr.Toggle(idx)
	}
	if got := tr.Selected(); !slices.Equal(got, []int{1, 2, 4, 5}) {
		t.Errorf("Selected() = %v, want [1 2 4 5]", got)
	}
}

func TestTracker_Only(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		indexes []int
		want    int
		wantOK  bool
	}{
		{name: "none", indexes: nil},
		{name: "one", indexes: []int{7}, want: 7, wantOK: true},
		{name: "two", indexes: []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr := NewTracker()
			for _, idx := range tt.indexes {
				tr.Toggle(idx)
			}
			got, ok := tr.Only()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Only() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestTracker_Clear(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	for i := 1; i <= 6; i++ {
		tr.Toggle(i)
	}
	tr.Toggle(4)
	if tr.Len() != 5 {
		t.Errorf("Len() = %d, want 5", tr.Len())
	}

	tr.Clear()
	if !tr.Empty() {
		t.Error("Empty() = false after Clear")
	}
	if _, ok := tr.Only(); ok {
		t.Error("Only() ok after Clear")
	}
}
