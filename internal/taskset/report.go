package taskset

import (
	"fmt"
	"io"
	"text/tabwriter"

	"fate/kernel"
)

// TaskStats counts what happened to one task during a run.
type TaskStats struct {
	Name        string
	Slot        int
	Activations int
	Dispatches  int
	Preemptions int
	Restarts    int
	Completions int
	Misses      int
	// LastStop is the tick of the most recent completion.
	LastStop uint64
}

// Report is the outcome of a simulated run.
type Report struct {
	Ticks uint64
	Tasks []TaskStats

	preempted [kernel.NumSlots]bool
	stopped   [kernel.NumSlots]bool
}

func newReport(set *Set) *Report {
	r := &Report{Tasks: make([]TaskStats, len(set.Tasks))}
	for i, t := range set.Tasks {
		r.Tasks[i] = TaskStats{Name: t.Name, Slot: i + 1}
	}
	return r
}

func (r *Report) task(slot int) *TaskStats {
	if slot < 1 || slot > len(r.Tasks) {
		return nil
	}
	return &r.Tasks[slot-1]
}

// observe folds one kernel event into the counters.
func (r *Report) observe(ev kernel.Event) {
	ts := r.task(ev.Slot)
	switch ev.Kind {
	case kernel.EventActivated, kernel.EventTriggered:
		if ts != nil {
			ts.Activations++
		}
	case kernel.EventStopped:
		if ts != nil {
			ts.Completions++
			ts.LastStop = ev.Tick
			r.stopped[ev.Slot] = true
		}
	case kernel.EventDeadlineMissed:
		if ts != nil {
			ts.Misses++
		}
	case kernel.EventSwitched, kernel.EventIdle:
		if from := r.task(ev.From); from != nil && !r.stopped[ev.From] {
			from.Preemptions++
			r.preempted[ev.From] = true
		}
		if ev.From >= 0 && ev.From < kernel.NumSlots {
			r.stopped[ev.From] = false
		}
		if ts != nil {
			ts.Dispatches++
			if r.preempted[ev.Slot] {
				ts.Restarts++
				r.preempted[ev.Slot] = false
			}
			r.stopped[ev.Slot] = false
		}
	}
}

// WriteTable prints the report as an aligned table.
func (r *Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "SLOT\tTASK\tACTIVATIONS\tDISPATCHES\tPREEMPTIONS\tRESTARTS\tCOMPLETIONS\tMISSES\n")
	for _, t := range r.Tasks {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			t.Slot, t.Name, t.Activations, t.Dispatches, t.Preemptions, t.Restarts, t.Completions, t.Misses)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "ticks: %d\n", r.Ticks)
	return err
}
