//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

const (
	codeBase    Address = 0x0000_1000
	codeStride  Address = 0x40
	ramBase     Address = 0x2000_0000
	ramWords            = 256
	xpsrThumb   uint32  = 0x0100_0000
	lrInvalid   uint32  = 0xFFFF_FFFF
	handlerPush         = 2 // words of handler locals below the marker

	// Stacked PCs point this far into the interrupted routine.
	bodyOffset Address = 2

	defaultCyclesPerTick = 100
	defaultTickPeriod    = 10 * time.Millisecond
	ctxPollMask          = 1<<10 - 1
)

// MachineConfig controls the simulated processor.
type MachineConfig struct {
	// CyclesPerTick is the number of instruction boundaries per tick period.
	CyclesPerTick uint32
	// Layout is the exception frame layout the handlers see.
	Layout FrameLayout
	// Realtime paces tick overflows against the wall clock.
	Realtime bool
	// Ticks powers the machine off after this many tick overflows (0 = never).
	Ticks uint64
}

type redirect struct{ to Address }

type powerOff struct{ cause error }

type lockedUp struct{}

// hostMachine is a single-core processor with one shared stack.
//
// Running code and interrupt handlers share the calling goroutine: interrupts
// are only taken at instruction boundaries, which are the peripheral accesses a
// routine makes (access). Exception entry pushes a hardware frame into RAM;
// exception return pops it and, if the stacked PC was rewritten, unwinds the
// interrupted routine and starts the one linked at the new PC.
type hostMachine struct {
	cfg MachineConfig
	ctx context.Context

	routines []func()
	mem      hostMemory
	sp       Address
	pc       Address

	vectors  [NumIRQs]func()
	enabled  [NumIRQs]bool
	priority [NumIRQs]uint8
	pending  [NumIRQs]bool
	masked   bool
	active   bool
	serviced uint64

	tickPeriod time.Duration
	tickArmed  bool
	tickFlag   bool
	phase      uint32
	ticks      uint64
	cycles     uint64
	next       time.Time

	triggerArmed [NumTriggers]bool
	triggerFlag  [NumTriggers]bool
	raised       [NumTriggers]atomic.Bool
	switches     [NumTriggers]*virtualPin

	timers []*hostTimer
	at     map[uint64][]func()
}

func newHostMachine(ctx context.Context, cfg MachineConfig) *hostMachine {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.CyclesPerTick == 0 {
		cfg.CyclesPerTick = defaultCyclesPerTick
	}
	if cfg.Layout.Marker == 0 {
		cfg.Layout = LayoutGCC
	}
	m := &hostMachine{
		cfg:        cfg,
		ctx:        ctx,
		sp:         ramTop(),
		masked:     true,
		tickPeriod: defaultTickPeriod,
		at:         make(map[uint64][]func()),
	}
	m.switches[TriggerSwitch1] = newVirtualPin("P1.1", GPIOCapInput|GPIOCapPullUp|GPIOCapInterrupt)
	m.switches[TriggerSwitch4] = newVirtualPin("P1.4", GPIOCapInput|GPIOCapPullUp|GPIOCapInterrupt)
	return m
}

func ramTop() Address { return ramBase + ramWords*4 }

func (m *hostMachine) Link(fn func()) Address {
	m.routines = append(m.routines, fn)
	return codeBase + Address(len(m.routines)-1)*codeStride
}

func (m *hostMachine) routine(addr Address) (func(), bool) {
	if addr < codeBase || (addr-codeBase)%codeStride != 0 {
		return nil, false
	}
	idx := int((addr - codeBase) / codeStride)
	if idx >= len(m.routines) {
		return nil, false
	}
	return m.routines[idx], true
}

func (m *hostMachine) Vector(irq IRQ, handler func()) {
	if irq < NumIRQs {
		m.vectors[irq] = handler
	}
}

func (m *hostMachine) ArmTick(period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("hal: arm tick: invalid period %v", period)
	}
	m.tickPeriod = period
	m.tickArmed = true
	m.phase = 0
	m.next = time.Time{}
	return nil
}

func (m *hostMachine) TickFlag() bool { return m.tickFlag }
func (m *hostMachine) ClearTickFlag() { m.tickFlag = false }

func (m *hostMachine) ArmTrigger(t Trigger) error {
	if !t.Valid() {
		return fmt.Errorf("hal: arm trigger %s: %w", t, ErrNotImplemented)
	}
	pin := m.switches[t]
	if err := pin.Configure(GPIOModeInput, GPIOPullUp); err != nil {
		return fmt.Errorf("hal: arm trigger %s: %w", t, err)
	}
	if err := pin.SetInterrupt(GPIOEdgeFalling, func() { m.raised[t].Store(true) }); err != nil {
		return fmt.Errorf("hal: arm trigger %s: %w", t, err)
	}
	m.triggerArmed[t] = true
	return nil
}

func (m *hostMachine) TriggerFlag(t Trigger) bool {
	return t.Valid() && m.triggerFlag[t]
}

func (m *hostMachine) ClearTriggerFlag(t Trigger) {
	if t.Valid() {
		m.triggerFlag[t] = false
	}
}

func (m *hostMachine) EnableIRQ(irq IRQ, priority uint8) {
	if irq < NumIRQs {
		m.enabled[irq] = true
		m.priority[irq] = priority
	}
}

func (m *hostMachine) SetPending(irq IRQ) {
	if irq < NumIRQs {
		m.pending[irq] = true
	}
}

func (m *hostMachine) EnableInterrupts() { m.masked = false }

func (m *hostMachine) Frame() (Frame, error) {
	r, err := Locate(&m.mem, m.sp, m.cfg.Layout)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (m *hostMachine) Wait() {
	n := m.serviced
	for m.serviced == n {
		m.step()
	}
}

func (m *hostMachine) Halt() {
	if m.active {
		m.lockup()
	}
	for {
		m.step()
	}
}

// lockup stops the processor for good: halting inside a handler leaves
// nothing that could ever take another exception.
func (m *hostMachine) lockup() {
	panic(lockedUp{})
}

// Jump runs the routine at addr and every routine execution is redirected to,
// until the machine powers off or faults.
func (m *hostMachine) Jump(addr Address) error {
	m.sp = ramTop()
	for {
		next, err := m.exec(addr)
		if err != nil {
			return err
		}
		addr = next
	}
}

func (m *hostMachine) exec(addr Address) (next Address, err error) {
	fn, ok := m.routine(addr)
	if !ok {
		return 0, fmt.Errorf("hal: jump to %s: %w", addr, ErrUnlinkedAddress)
	}

	defer func() {
		switch r := recover().(type) {
		case nil:
		case redirect:
			next, err = r.to, nil
		case powerOff:
			if r.cause != nil {
				err = fmt.Errorf("%w: %w", ErrPoweredOff, r.cause)
			} else {
				err = ErrPoweredOff
			}
		case lockedUp:
			err = fmt.Errorf("hal: halt in handler at tick %d: %w", m.ticks, ErrLockup)
		default:
			panic(r)
		}
	}()

	m.pc = addr
	m.active = false
	fn()
	return 0, fmt.Errorf("hal: routine at %s: %w", addr, ErrRoutineReturned)
}

// access marks an instruction boundary in running code.
func (m *hostMachine) access() { m.step() }

func (m *hostMachine) step() {
	if m.active {
		return
	}
	m.cycles++
	if m.cycles&ctxPollMask == 0 {
		if err := m.ctx.Err(); err != nil {
			panic(powerOff{cause: err})
		}
	}
	for _, t := range m.timers {
		t.clock()
	}
	if m.tickArmed {
		m.phase++
		if m.phase >= m.cfg.CyclesPerTick {
			m.phase = 0
			m.overflow()
		}
	}
	for t := Trigger(0); t < NumTriggers; t++ {
		if m.raised[t].Swap(false) && m.triggerArmed[t] {
			m.triggerFlag[t] = true
			m.pending[IRQPort] = true
		}
	}
	m.service()
}

func (m *hostMachine) overflow() {
	if m.cfg.Ticks > 0 && m.ticks >= m.cfg.Ticks {
		panic(powerOff{})
	}
	m.pace()
	if err := m.ctx.Err(); err != nil {
		panic(powerOff{cause: err})
	}
	if fns, ok := m.at[m.ticks]; ok {
		delete(m.at, m.ticks)
		for _, fn := range fns {
			fn()
		}
	}
	m.ticks++
	m.tickFlag = true
	m.pending[IRQTick] = true
}

func (m *hostMachine) pace() {
	if !m.cfg.Realtime {
		return
	}
	now := time.Now()
	if m.next.IsZero() {
		m.next = now
	}
	m.next = m.next.Add(m.tickPeriod)
	d := m.next.Sub(now)
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-m.ctx.Done():
	}
}

func (m *hostMachine) service() {
	if m.masked || m.active {
		return
	}
	for {
		irq, ok := m.nextIRQ()
		if !ok {
			return
		}
		m.take(irq)
	}
}

// nextIRQ picks the pending line with the lowest priority value; equal
// priorities go to the lower line number.
func (m *hostMachine) nextIRQ() (IRQ, bool) {
	var best IRQ
	found := false
	for irq := IRQ(0); irq < NumIRQs; irq++ {
		if !m.pending[irq] || !m.enabled[irq] || m.vectors[irq] == nil {
			continue
		}
		if !found || m.priority[irq] < m.priority[best] {
			best, found = irq, true
		}
	}
	return best, found
}

func (m *hostMachine) take(irq IRQ) {
	m.pending[irq] = false
	resume := m.pc + bodyOffset

	// Hardware frame: R0, R1, R2, R3, R12, LR, PC, xPSR.
	m.sp -= 8 * 4
	frame := [8]uint32{0, 0, 0, 0, 0, lrInvalid, uint32(resume), xpsrThumb}
	for i, w := range frame {
		m.mem.mustStore(m.sp+Address(i*4), w)
	}
	// Handler prologue: EXC_RETURN, then locals.
	m.sp -= 4
	m.mem.mustStore(m.sp, m.cfg.Layout.Marker)
	m.sp -= handlerPush * 4
	for i := 0; i < handlerPush; i++ {
		m.mem.mustStore(m.sp+Address(i*4), 0)
	}

	m.active = true
	m.serviced++
	m.vectors[irq]()
	m.active = false

	m.sp += handlerPush*4 + 4
	pc := Address(m.mem.mustLoad(m.sp + 6*4))
	m.sp += 8 * 4

	if pc != resume {
		panic(redirect{to: pc})
	}
}

// at schedules fn to run just before tick overflow number tick (0-based).
func (m *hostMachine) schedule(tick uint64, fn func()) {
	m.at[tick] = append(m.at[tick], fn)
}

// press drives a switch low and back high, as a button press does.
func (m *hostMachine) press(t Trigger) error {
	if !t.Valid() {
		return errors.New("hal: press: invalid trigger")
	}
	pin := m.switches[t]
	pin.drive(false)
	pin.drive(true)
	return nil
}

func (m *hostMachine) cyclesFor(d time.Duration) uint64 {
	if d <= 0 || m.tickPeriod <= 0 {
		return 1
	}
	n := uint64(d) * uint64(m.cfg.CyclesPerTick) / uint64(m.tickPeriod)
	if n == 0 {
		n = 1
	}
	return n
}

type hostMemory struct {
	words [ramWords]uint32
}

func (mem *hostMemory) index(addr Address) (int, error) {
	if addr%4 != 0 {
		return 0, fmt.Errorf("hal: unaligned access at %s", addr)
	}
	if addr < ramBase || addr >= ramTop() {
		return 0, fmt.Errorf("hal: access outside RAM at %s", addr)
	}
	return int(addr-ramBase) / 4, nil
}

func (mem *hostMemory) LoadWord(addr Address) (uint32, error) {
	i, err := mem.index(addr)
	if err != nil {
		return 0, err
	}
	return mem.words[i], nil
}

func (mem *hostMemory) StoreWord(addr Address, v uint32) error {
	i, err := mem.index(addr)
	if err != nil {
		return err
	}
	mem.words[i] = v
	return nil
}

func (mem *hostMemory) mustLoad(addr Address) uint32 {
	v, err := mem.LoadWord(addr)
	if err != nil {
		panic(err)
	}
	return v
}

func (mem *hostMemory) mustStore(addr Address, v uint32) {
	if err := mem.StoreWord(addr, v); err != nil {
		panic(err)
	}
}
