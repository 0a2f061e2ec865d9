package kernel

// tickISR services the tick interrupt. Time only advances when the tick timer
// actually overflowed; a software-pended tick just re-runs selection.
func (k *Kernel) tickISR() {
	if k.faulted.Load() {
		k.m.ClearTickFlag()
		return
	}
	if k.m.TickFlag() {
		k.advance()
		k.m.ClearTickFlag()
	}
	k.dispatch()
}

// advance runs one timing pass over the registered tasks.
func (k *Kernel) advance() {
	tick := k.ticks
	k.ticks++
	for i := idleSlot + 1; i < NumSlots; i++ {
		d := &k.tasks[i]
		if d.state == Undefined {
			continue
		}

		// A ready task that used up its deadline in an earlier pass is late
		// now; report it once per activation.
		if d.state.ready() && d.deadlineRemaining == 0 && !d.missed {
			d.missed = true
			k.emit(Event{Kind: EventDeadlineMissed, Tick: tick, Slot: i, Name: d.name})
		}

		if d.startOffset > 0 {
			d.startOffset--
		} else if d.period != 0 {
			d.count++
			d.count %= d.period
		}

		if d.count == 0 && d.state == Stopped {
			d.state = Suspended
			d.deadlineRemaining = d.deadline
			d.missed = false
			k.emit(Event{Kind: EventActivated, Tick: tick, Slot: i, Name: d.name})
		}

		if d.state.ready() && d.deadlineRemaining > 0 {
			d.deadlineRemaining--
		}
	}
}

// selectNext returns the ready slot with the least remaining deadline, the
// lowest slot on a tie, or the idle slot when nothing is ready.
func (k *Kernel) selectNext() int {
	best := idleSlot
	for i := idleSlot + 1; i < NumSlots; i++ {
		d := &k.tasks[i]
		if !d.state.ready() || d.startOffset != 0 {
			continue
		}
		if best == idleSlot || d.deadlineRemaining < k.tasks[best].deadlineRemaining {
			best = i
		}
	}
	return best
}

func (k *Kernel) dispatch() {
	next := k.selectNext()
	cur := k.current

	if next != cur {
		// A task that already stopped itself keeps its state.
		if k.tasks[cur].state == Running {
			k.tasks[cur].state = Suspended
		}
		k.tasks[next].state = Running
		k.current = next
		k.redirect(cur, next, EventSwitched)
		return
	}

	if k.tasks[cur].state == Stopped {
		k.current = idleSlot
		k.tasks[idleSlot].state = Running
		k.redirect(cur, idleSlot, EventIdle)
	}
}

// redirect makes the interrupted context return into the entry of slot to.
func (k *Kernel) redirect(from, to int, kind EventKind) {
	if k.opts.switchHook != nil {
		k.opts.switchHook(from, to)
	}
	k.emit(Event{Kind: kind, Tick: k.now(), Slot: to, From: from, Name: k.tasks[to].name})

	f, err := k.m.Frame()
	if err != nil {
		k.fault(to, err)
		return
	}
	f.SetReturnAddress(k.tasks[to].entry)
	if r, ok := f.(interface{ Err() error }); ok {
		if err := r.Err(); err != nil {
			k.fault(to, err)
		}
	}
}
