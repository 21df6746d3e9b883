package cpu

import (
	"iter"
)

const (
	STACK_LIMIT = 1024 // Maximum virtual stack depth
)

// SlotTag identifies the kind of a virtual stack slot.
type SlotTag uint8

//go:generate go tool stringer -linecomment -type=SlotTag
const (
	SLOT_NONE   = SlotTag(0) // none
	SLOT_WORD   = SlotTag(1) // word
	SLOT_FLAGS  = SlotTag(2) // flags
	SLOT_RETURN = SlotTag(3) // return
)

// Slot is a tagged virtual stack entry. Return markers carry no payload;
// the return address lives on the native call stack.
type Slot struct {
	Tag   SlotTag
	Word  uint16
	Flags Flags
}

// Stack is the bounded, type-tagged virtual stack of the guest.
type Stack struct {
	Slot  [STACK_LIMIT]Slot
	Depth int

	Sentinel uint16              // Last issued return marker sentinel.
	Pending  [STACK_LIMIT]uint16 // Outstanding sentinels, innermost last.
	Saved    int                 // Count of outstanding sentinels.
}

func (s *Stack) Empty() bool {
	return s.Depth == 0
}

func (s *Stack) Full() bool {
	return s.Depth == STACK_LIMIT
}

// Peek returns the top slot, or ok == false if the stack is empty.
func (s *Stack) Peek() (slot Slot, ok bool) {
	if s.Empty() {
		return
	}

	return s.Slot[s.Depth-1], true
}

// Reset empties the stack.
func (s *Stack) Reset() {
	s.Depth = 0
	s.Saved = 0
	s.Sentinel = 0
}

// Slots iterates from the top of the stack to the bottom.
func (s *Stack) Slots() iter.Seq2[int, Slot] {
	return func(yield func(depth int, slot Slot) bool) {
		for n := s.Depth - 1; n >= 0; n-- {
			if !yield(n, s.Slot[n]) {
				return
			}
		}
	}
}

func (s *Stack) push(slot Slot) {
	if s.Full() {
		panic(NewFault(2, ErrStackFull))
	}
	s.Slot[s.Depth] = slot
	s.Depth++
}

func (s *Stack) pop(tag SlotTag) (slot Slot) {
	if s.Empty() {
		panic(NewFault(2, ErrStackEmpty))
	}
	slot = s.Slot[s.Depth-1]
	if slot.Tag != tag {
		panic(NewFault(2, ErrTag{Want: tag, Have: slot.Tag}))
	}
	s.Depth--
	return
}

func (s *Stack) PushWord(value uint16) {
	s.push(Slot{Tag: SLOT_WORD, Word: value})
}

func (s *Stack) PopWord() (value uint16) {
	return s.pop(SLOT_WORD).Word
}

func (s *Stack) PushFlags(flags Flags) {
	s.push(Slot{Tag: SLOT_FLAGS, Flags: flags})
}

func (s *Stack) PopFlags() (flags Flags) {
	return s.pop(SLOT_FLAGS).Flags
}

// PushReturn pushes a return marker on entry to a translated call.
func (s *Stack) PushReturn() {
	s.push(Slot{Tag: SLOT_RETURN})
}

// PopReturn pops the return marker on return from a translated call.
func (s *Stack) PopReturn() {
	s.pop(SLOT_RETURN)
}

// PreSaveRet converts the top return marker into an ordinary word, so
// translated code may pop and later push it back like any other word.
// The word holds a fresh sentinel that PostRestoreRet verifies.
func (s *Stack) PreSaveRet() {
	s.pop(SLOT_RETURN)
	if s.Saved == len(s.Pending) {
		panic(NewFault(1, ErrStackFull))
	}
	s.Sentinel++
	s.Pending[s.Saved] = s.Sentinel
	s.Saved++
	s.push(Slot{Tag: SLOT_WORD, Word: s.Sentinel})
}

// PostRestoreRet converts the top word back into the return marker it
// was made from by PreSaveRet.
func (s *Stack) PostRestoreRet() {
	if s.Saved == 0 {
		panic(NewFault(1, ErrStackSentinel))
	}
	value := s.pop(SLOT_WORD).Word
	want := s.Pending[s.Saved-1]
	if value != want {
		panic(NewFault(1, ErrSentinel{Want: want, Have: value}))
	}
	s.Saved--
	s.push(Slot{Tag: SLOT_RETURN})
}
