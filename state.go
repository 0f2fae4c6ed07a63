package brisc

import (
	"github.com/benbjohnson/immutable"
)

// RegisterState represents an immutable valuation of every register, in the
// order given by Profile.QVector.
type RegisterState struct {
	bits string
}

// NewRegisterState returns a state holding a copy of bits.
func NewRegisterState(bits Bits) RegisterState {
	return RegisterState{bits: bits.String()}
}

// Len returns the number of registers in the state.
func (s RegisterState) Len() int { return len(s.bits) }

// Bits returns a copy of the register values.
func (s RegisterState) Bits() Bits {
	a := make(Bits, len(s.bits))
	for i := 0; i < len(s.bits); i++ {
		a[i], _ = ParseBit(s.bits[i])
	}
	return a
}

// String returns the register values in state-vector order.
func (s RegisterState) String() string { return s.bits }

// StateSet represents the set of reachable register states. States are kept in
// insertion order and never removed.
type StateSet struct {
	list   *immutable.List
	index  map[RegisterState]int
	frozen bool
}

// NewStateSet returns a new, empty set.
func NewStateSet() *StateSet {
	return &StateSet{
		list:  immutable.NewList(),
		index: make(map[RegisterState]int),
	}
}

// Insert adds a state. Returns false if the state was already present.
func (s *StateSet) Insert(state RegisterState) (bool, error) {
	if s.frozen {
		return false, &ConsistencyError{Name: "state " + state.String(), Err: ErrFrozen}
	} else if _, ok := s.index[state]; ok {
		return false, nil
	}
	s.index[state] = s.list.Len()
	s.list = s.list.Append(state)
	return true, nil
}

// Contains returns true if state has been inserted.
func (s *StateSet) Contains(state RegisterState) bool {
	_, ok := s.index[state]
	return ok
}

// Len returns the number of states.
func (s *StateSet) Len() int { return s.list.Len() }

// At returns the i-th state in insertion order.
func (s *StateSet) At(i int) RegisterState {
	return s.list.Get(i).(RegisterState)
}

// States returns all states in insertion order.
func (s *StateSet) States() []RegisterState {
	a := make([]RegisterState, 0, s.list.Len())
	itr := s.list.Iterator()
	for !itr.Done() {
		_, v := itr.Next()
		a = append(a, v.(RegisterState))
	}
	return a
}

// Freeze prevents any further insertion.
func (s *StateSet) Freeze() { s.frozen = true }

// Frozen returns true if the set has been frozen.
func (s *StateSet) Frozen() bool { return s.frozen }

// SignalSet represents the set of signals that have not toggled. It starts
// full and only ever shrinks.
type SignalSet struct {
	m      *immutable.SortedMap
	frozen bool
}

// NewSignalSet returns a set containing sigs.
func NewSignalSet(sigs []SignalID) *SignalSet {
	b := immutable.NewSortedMapBuilder(&signalComparer{})
	for _, sig := range sigs {
		b.Set(sig, struct{}{})
	}
	return &SignalSet{m: b.Map()}
}

// Remove deletes a signal. Returns false if it was not present.
func (s *SignalSet) Remove(sig SignalID) (bool, error) {
	if _, ok := s.m.Get(sig); !ok {
		return false, nil
	} else if s.frozen {
		return false, &ConsistencyError{Name: "untoggled signal", Err: ErrFrozen}
	}
	s.m = s.m.Delete(sig)
	return true, nil
}

// Contains returns true if sig is in the set.
func (s *SignalSet) Contains(sig SignalID) bool {
	_, ok := s.m.Get(sig)
	return ok
}

// Len returns the number of signals in the set.
func (s *SignalSet) Len() int { return s.m.Len() }

// Signals returns all signals in ascending order.
func (s *SignalSet) Signals() []SignalID {
	a := make([]SignalID, 0, s.m.Len())
	itr := s.m.Iterator()
	for !itr.Done() {
		k, _ := itr.Next()
		a = append(a, k.(SignalID))
	}
	return a
}

// Freeze prevents any further removal.
func (s *SignalSet) Freeze() { s.frozen = true }

// Frozen returns true if the set has been frozen.
func (s *SignalSet) Frozen() bool { return s.frozen }
