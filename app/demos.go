package app

import (
	"time"

	"fate/hal"
	"fate/kernel"
)

// Blink demo: the red LED toggles every second after 1.5 s, switch 4 steps
// the RGB LED through its eight colours.
func (s *System) addBlink() error {
	led := s.h.LED()
	rgb := s.h.RGB()

	if _, err := s.k.AddPeriodic("led_toggle", func(th kernel.Handle) {
		led.Toggle()
		th.Stop()
	}, 100, 150, 10000); err != nil {
		return err
	}
	_, err := s.k.AddEvent("rgb_toggle", func(th kernel.Handle) {
		c := (rgb.Get() + 1) & 7
		rgb.Set(c)
		th.Stop()
	}, hal.TriggerSwitch4, 100)
	return err
}

// fixedTask is a task with a fixed execution time measured on its own timer.
type fixedTask struct {
	name                     string
	period, offset, deadline uint32
	timer                    int
	work                     time.Duration
	color                    hal.RGBColor
}

// Three tasks sharing a 15 s hyperperiod; their activations overlap so that
// each is preempted at least once.
var fixedTasks = []fixedTask{
	{name: "task_1", period: 1500, offset: 300, deadline: 100, timer: 0, work: time.Second, color: hal.RGBBlue},
	{name: "task_2", period: 1500, offset: 0, deadline: 1500, timer: 1, work: 10 * time.Second, color: hal.RGBRed},
	{name: "task_3", period: 1500, offset: 100, deadline: 700, timer: 2, work: 3 * time.Second, color: hal.RGBGreen},
}

func (s *System) addFixed() error {
	for _, ft := range fixedTasks {
		if _, err := s.k.AddPeriodic(ft.name, s.fixedRoutine(ft), ft.period, ft.offset, ft.deadline); err != nil {
			return err
		}
	}
	return nil
}

// fixedRoutine shows the task's colour while its timer runs. The timer is
// only configured on the first entry, so a restart resumes the count.
func (s *System) fixedRoutine(ft fixedTask) kernel.Routine {
	tm := s.h.Timer(ft.timer)
	rgb := s.h.RGB()
	return func(th kernel.Handle) {
		if !tm.Configured() {
			tm.Configure(ft.work)
		}
		tm.Run()

		rgb.Set(ft.color)

		for !tm.Overflowed() {
		}

		rgb.Set(hal.RGBOff)
		tm.Disable()
		th.Stop()
	}
}

// pauseTimers freezes every task timer on a switch, so a timer only counts
// while its own task runs.
func (s *System) pauseTimers(from, to int) {
	for i := 0; i < hal.NumTimers; i++ {
		if tm := s.h.Timer(i); tm != nil {
			tm.Pause()
		}
	}
}
