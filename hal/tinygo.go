//go:build tinygo && baremetal

package hal

// Raspberry Pi Pico (RP2040, Cortex-M0+) board support.
//
// Build with -scheduler=none: the kernel assumes one shared stack.
//
//	tinygo flash -target=pico -scheduler=none .

/*
#include <stdint.h>
extern uint32_t fate_stack_base;
void fate_trampoline(void);
uintptr_t fate_trampoline_addr(void);
*/
import "C"

import (
	"device/arm"
	"machine"
	"runtime/volatile"
	"time"
	"unsafe"
)

const (
	regICSR     = 0xE000ED04
	regSHPR3    = 0xE000ED20
	regSYSCSR   = 0xE000E010
	regSYSRVR   = 0xE000E014
	regSYSCVR   = 0xE000E018
	regNVICIPR  = 0xE000E400
	regNVICISER = 0xE000E100

	icsrPendSTSet = 1 << 26
	sysCSREnable  = 1 << 0
	sysCSRTickInt = 1 << 1
	sysCSRClkSrc  = 1 << 2

	irqIOBank0 = 13
)

// LayoutTinyGo is the RP2040 frame as seen from a TinyGo-built handler.
var LayoutTinyGo = FrameLayout{Marker: 0xFFFFFFF9, ReturnOffset: 0x1C, Limit: 1024}

func reg(addr uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

type tinyGoHAL struct {
	logger *uartLogger
	led    *pinLED
	rgb    *pinRGB
	gpio   GPIO
	timers [NumTimers]*tinyGoTimer
	m      *tinyGoMachine
}

var board *tinyGoHAL

// New returns a Pico HAL implementation.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1. Switches on GP14/GP15
// (active low), RGB LED on GP18..GP20.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	ledPin := machine.LED
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	rgbPins := [3]machine.Pin{machine.GP18, machine.GP19, machine.GP20}
	for _, p := range rgbPins {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Low()
	}

	led := &pinLED{pin: ledPin}
	rgb := &pinRGB{pins: rgbPins}
	board = &tinyGoHAL{
		logger: &uartLogger{uart: uart},
		led:    led,
		rgb:    rgb,
		gpio:   newVirtualGPIO(ledPins(func() bool { return led.on }, led, rgb.Get, rgb)),
		m: &tinyGoMachine{
			switches: [NumTriggers]machine.Pin{
				TriggerSwitch1: machine.GP14,
				TriggerSwitch4: machine.GP15,
			},
		},
	}
	for i := range board.timers {
		board.timers[i] = &tinyGoTimer{}
	}
	return board
}

func (h *tinyGoHAL) Logger() Logger   { return h.logger }
func (h *tinyGoHAL) LED() LED         { return h.led }
func (h *tinyGoHAL) RGB() RGB         { return h.rgb }
func (h *tinyGoHAL) GPIO() GPIO       { return h.gpio }
func (h *tinyGoHAL) Counter() Counter { return tinyGoCounter{m: h.m} }
func (h *tinyGoHAL) Display() Display { return nil }
func (h *tinyGoHAL) Machine() Machine { return h.m }
func (h *tinyGoHAL) Timer(id int) Timer {
	if id < 0 || id >= NumTimers {
		return nil
	}
	return h.timers[id]
}

// tinyGoMachine drives SysTick, the NVIC and the real exception stack.
//
// Routines are not entered through their own code addresses: a Go func value
// carries a context word, so every redirection lands on fate_trampoline, which
// resets MSP to the base recorded by Jump and starts the routine selected by
// the last SetReturnAddress.
type tinyGoMachine struct {
	routines []func()
	vectors  [NumIRQs]func()
	switches [NumTriggers]machine.Pin

	tickFlag    volatile.Register32
	triggerFlag [NumTriggers]volatile.Register32

	reload    uint32
	overflows volatile.Register32
}

var nextEntry volatile.Register32

func (m *tinyGoMachine) Link(fn func()) Address {
	m.routines = append(m.routines, fn)
	return Address(len(m.routines))
}

func (m *tinyGoMachine) Vector(irq IRQ, handler func()) {
	if irq < NumIRQs {
		m.vectors[irq] = handler
	}
}

func (m *tinyGoMachine) ArmTick(period time.Duration) error {
	reload := uint64(machine.CPUFrequency()) * uint64(period) / uint64(time.Second)
	if reload == 0 || reload > 1<<24 {
		return ErrNotImplemented
	}
	m.reload = uint32(reload - 1)
	reg(regSYSRVR).Set(m.reload)
	reg(regSYSCVR).Set(0)
	reg(regSYSCSR).Set(sysCSREnable | sysCSRTickInt | sysCSRClkSrc)
	return nil
}

func (m *tinyGoMachine) TickFlag() bool { return m.tickFlag.Get() != 0 }
func (m *tinyGoMachine) ClearTickFlag() { m.tickFlag.Set(0) }

func (m *tinyGoMachine) ArmTrigger(t Trigger) error {
	if !t.Valid() {
		return ErrNotImplemented
	}
	pin := m.switches[t]
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return pin.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		m.triggerFlag[t].Set(1)
		if v := m.vectors[IRQPort]; v != nil {
			v()
		}
	})
}

func (m *tinyGoMachine) TriggerFlag(t Trigger) bool {
	return t.Valid() && m.triggerFlag[t].Get() != 0
}

func (m *tinyGoMachine) ClearTriggerFlag(t Trigger) {
	if t.Valid() {
		m.triggerFlag[t].Set(0)
	}
}

// EnableIRQ sets a 2-bit Cortex-M0+ priority.
func (m *tinyGoMachine) EnableIRQ(irq IRQ, priority uint8) {
	prio := uint32(priority&0x3) << 6
	switch irq {
	case IRQTick:
		r := reg(regSHPR3)
		r.Set(r.Get()&^(0xFF<<24) | prio<<24)
	case IRQPort:
		ipr := reg(regNVICIPR + (irqIOBank0/4)*4)
		shift := uint32(irqIOBank0%4) * 8
		ipr.Set(ipr.Get()&^(0xFF<<shift) | prio<<shift)
		reg(regNVICISER).Set(1 << irqIOBank0)
	}
}

func (m *tinyGoMachine) SetPending(irq IRQ) {
	if irq == IRQTick {
		reg(regICSR).Set(icsrPendSTSet)
	}
}

func (m *tinyGoMachine) EnableInterrupts() { arm.Asm("cpsie i") }

func (m *tinyGoMachine) Frame() (Frame, error) {
	sp := Address(arm.AsmFull("mrs {}, msp", nil))
	r, err := Locate(rawMemory{}, sp, LayoutTinyGo)
	if err != nil {
		return nil, err
	}
	return &trampolineFrame{r: r}, nil
}

func (m *tinyGoMachine) Wait() { arm.Asm("wfi") }

func (m *tinyGoMachine) Halt() {
	for {
		arm.Asm("nop")
	}
}

// Jump records the current MSP as the shared stack base and enters addr
// through the trampoline. It never returns.
func (m *tinyGoMachine) Jump(addr Address) error {
	nextEntry.Set(uint32(addr))
	C.fate_stack_base = C.uint32_t(arm.AsmFull("mrs {}, msp", nil))
	C.fate_trampoline()
	return nil
}

//export SysTick_Handler
func sysTickHandler() {
	if board == nil {
		return
	}
	m := board.m
	if reg(regSYSCSR).Get()&(1<<16) != 0 {
		m.tickFlag.Set(1)
		m.overflows.Set(m.overflows.Get() + 1)
	}
	if v := m.vectors[IRQTick]; v != nil {
		v()
	}
}

// enterRoutine runs on a fresh stack, called from fate_trampoline.
//
//export fate_enter_routine
func enterRoutine() {
	idx := int(nextEntry.Get()) - 1
	m := board.m
	if idx < 0 || idx >= len(m.routines) {
		for {
			arm.Asm("bkpt")
		}
	}
	m.routines[idx]()
	for {
		arm.Asm("bkpt")
	}
}

func trampolinePC() uint32 {
	return uint32(C.fate_trampoline_addr()) &^ 1
}

// trampolineFrame redirects to the trampoline and records the routine token.
type trampolineFrame struct {
	r *Redirector
}

func (f *trampolineFrame) ReturnAddress() Address {
	if uint32(f.r.ReturnAddress()) == trampolinePC() {
		return Address(nextEntry.Get())
	}
	return f.r.ReturnAddress()
}

func (f *trampolineFrame) SetReturnAddress(addr Address) {
	nextEntry.Set(uint32(addr))
	f.r.SetReturnAddress(Address(trampolinePC()))
}

type rawMemory struct{}

func (rawMemory) LoadWord(addr Address) (uint32, error) {
	return volatile.LoadUint32((*uint32)(unsafe.Pointer(uintptr(addr)))), nil
}

func (rawMemory) StoreWord(addr Address, v uint32) error {
	volatile.StoreUint32((*uint32)(unsafe.Pointer(uintptr(addr))), v)
	return nil
}

// tinyGoTimer accumulates running time against the runtime clock.
type tinyGoTimer struct {
	configured bool
	running    bool
	period     time.Duration
	acc        time.Duration
	since      time.Time
}

func (t *tinyGoTimer) Configured() bool { return t.configured }

func (t *tinyGoTimer) Configure(period time.Duration) {
	t.configured, t.running = true, false
	t.period, t.acc = period, 0
}

func (t *tinyGoTimer) Run() {
	if !t.running {
		t.running = true
		t.since = time.Now()
	}
}

func (t *tinyGoTimer) Pause() {
	if t.running {
		t.acc += time.Since(t.since)
		t.running = false
	}
}

func (t *tinyGoTimer) Overflowed() bool {
	if !t.configured {
		return false
	}
	elapsed := t.acc
	if t.running {
		elapsed += time.Since(t.since)
	}
	return elapsed >= t.period
}

func (t *tinyGoTimer) Disable() {
	t.configured, t.running = false, false
	t.acc = 0
}

// tinyGoCounter counts core clock cycles from SysTick: whole reload periods
// plus the current down-count. It reads zero until ArmTick.
type tinyGoCounter struct{ m *tinyGoMachine }

func (c tinyGoCounter) Cycles() uint64 {
	if c.m.reload == 0 {
		return 0
	}
	period := uint64(c.m.reload) + 1
	for {
		n := c.m.overflows.Get()
		cur := reg(regSYSCVR).Get() & 0xFFFFFF
		if c.m.overflows.Get() == n {
			return uint64(n)*period + uint64(c.m.reload-cur)
		}
	}
}

type uartLogger struct {
	uart *machine.UART
}

func (l *uartLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		l.uart.WriteByte(s[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

func (l *uartLogger) WriteLineBytes(b []byte) {
	for i := 0; i < len(b); i++ {
		l.uart.WriteByte(b[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

type pinLED struct {
	pin machine.Pin
	on  bool
}

func (l *pinLED) High() { l.on = true; l.pin.High() }
func (l *pinLED) Low()  { l.on = false; l.pin.Low() }
func (l *pinLED) Toggle() {
	if l.on {
		l.Low()
	} else {
		l.High()
	}
}

type pinRGB struct {
	pins [3]machine.Pin
	c    RGBColor
}

func (l *pinRGB) Set(c RGBColor) {
	l.c = c & (RGBRed | RGBGreen | RGBBlue)
	for i, p := range l.pins {
		p.Set(l.c&(1<<i) != 0)
	}
}

func (l *pinRGB) Get() RGBColor { return l.c }
