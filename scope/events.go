package scope

// Event is the record passed to every listener fired by Emit/Broadcast.
// The same Event is shared across all targets during one propagation;
// currentScope is set per-target and cleared once propagation ends.
type Event struct {
	Name          string
	TargetScope   *Scope
	currentScope  *Scope
	stopped       bool
	preventedFlag bool
	broadcast     bool
}

// CurrentScope is the scope currently handling the event.
func (e *Event) CurrentScope() *Scope { return e.currentScope }

// StopPropagation halts further upward propagation of an emitted event;
// it has no effect on a broadcast.
func (e *Event) StopPropagation() {
	if !e.broadcast {
		e.stopped = true
	}
}

// PreventDefault marks the event as having had its default action
// prevented; DefaultPrevented reports it back.
func (e *Event) PreventDefault() { e.preventedFlag = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.preventedFlag }

// EventListener receives a fired event plus any extra arguments passed
// to Emit/Broadcast.
type EventListener func(evt *Event, args ...any)

// eventListenerSlot is a nil-able registration slot: On's destructor
// nulls it in place, and compaction happens only while that event name is
// firing.
type eventListenerSlot struct {
	fn EventListener
}

// On registers a listener for name and returns its destructor.
func (s *Scope) On(name string, listener EventListener) Destructor {
	slot := &eventListenerSlot{fn: listener}
	s.listenerSlots[name] = append(s.listenerSlots[name], slot)
	return func() { slot.fn = nil }
}

// Emit walks from s up to the root, firing listeners at each target in
// turn. The event honours StopPropagation.
func (s *Scope) Emit(name string, args ...any) *Event {
	evt := &Event{Name: name, TargetScope: s}
	for cur := s; cur != nil; cur = cur.parent {
		evt.currentScope = cur
		cur.fire(name, evt, args)
		if evt.stopped {
			break
		}
	}
	evt.currentScope = nil
	return evt
}

// Broadcast walks s's subtree pre-order, firing listeners at every
// descendant. StopPropagation has no effect here.
func (s *Scope) Broadcast(name string, args ...any) *Event {
	evt := &Event{Name: name, TargetScope: s, broadcast: true}
	stack := []*Scope{s}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i := len(cur.children) - 1; i >= 0; i-- {
			stack = append(stack, cur.children[i])
		}
		evt.currentScope = cur
		cur.fire(name, evt, args)
	}
	evt.currentScope = nil
	return evt
}

func (s *Scope) fire(name string, evt *Event, args []any) {
	slots := s.listenerSlots[name]
	for _, slot := range slots {
		if slot.fn == nil {
			continue
		}
		capturedSlot := slot
		s.safeCall("eventListener", func() error {
			capturedSlot.fn(evt, args...)
			return nil
		})
	}
	s.compactListeners(name)
}

// compactListeners removes nulled slots for name; it runs only while
// that event name is firing.
func (s *Scope) compactListeners(name string) {
	slots := s.listenerSlots[name]
	out := make([]*eventListenerSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.fn != nil {
			out = append(out, slot)
		}
	}
	s.listenerSlots[name] = out
}
