package kernel

import "sync/atomic"

// FaultInfo describes an unrecoverable platform fault.
type FaultInfo struct {
	Slot  int
	Name  string
	Err   error
	Stack []byte
}

var faultHandler atomic.Value // func(FaultInfo)

// SetFaultHandler installs a process-wide fault handler.
//
// The handler is invoked at most once per kernel, after which the kernel stops
// scheduling and the machine halts. It must not panic or call back into the kernel.
func SetFaultHandler(fn func(FaultInfo)) {
	faultHandler.Store(fn)
}

// Faulted reports whether the kernel hit a fault.
func (k *Kernel) Faulted() bool {
	return k.faulted.Load()
}

func (k *Kernel) fault(slot int, err error) {
	k.faultOnce.Do(func() {
		k.faulted.Store(true)
		k.faultErr = err
		info := FaultInfo{Slot: slot, Err: err, Stack: captureStack()}
		if slot >= 0 && slot < NumSlots {
			info.Name = k.tasks[slot].name
		}
		if v := faultHandler.Load(); v != nil {
			if fn, ok := v.(func(FaultInfo)); ok && fn != nil {
				fn(info)
			}
		}
	})
	k.m.Halt()
}
