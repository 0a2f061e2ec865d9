package kernel

import "fate/hal"

// Stop marks the task finished and forces an immediate dispatch. It does not
// return: the dispatch redirects execution to whatever runs next.
func (h Handle) Stop() {
	k := h.k
	d := &k.tasks[h.slot]
	d.state = Stopped
	k.emit(Event{Kind: EventStopped, Tick: k.now(), Slot: h.slot, Name: d.name})

	k.m.SetPending(hal.IRQTick)
	k.m.Halt()
}
