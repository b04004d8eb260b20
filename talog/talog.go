// Package talog defines the pluggable event sink the backtracking engine
// reports its progress through: a single Kind enum plus a payload struct,
// dispatched through a Sink function, so that logging is a decoupled
// "caller" concern rather than something the engine hardcodes (spec.md
// §4.7). Grounded on the source's backtrack_log.py DebugPart/LogPart
// hierarchy, flattened into one event type in the style of the teacher's
// dfs.Option visitor hooks (OnVisit/OnEnqueue) rather than a class tree.
package talog

import (
	"fmt"
	"io"

	"github.com/ta-lab/permissiveness/automaton"
	"github.com/ta-lab/permissiveness/delay"
	"github.com/ta-lab/permissiveness/interval"
)

// Kind identifies which phase of the backtracking search an Event reports,
// mirroring the source's DebugPart enum.
type Kind int

const (
	StartConfig Kind = iota
	StartInterval
	FilteredOutInterval
	StartDelay
	GoalReached
	EndDelay
	EndAllDelays
	EndInterval
	EndAllIntervals
	CycleBoundHit
	TraceBoundHit
)

func (k Kind) String() string {
	switch k {
	case StartConfig:
		return "start_config"
	case StartInterval:
		return "start_interval"
	case FilteredOutInterval:
		return "filtered_out_interval"
	case StartDelay:
		return "start_delay"
	case GoalReached:
		return "goal_reached"
	case EndDelay:
		return "end_delay"
	case EndAllDelays:
		return "end_all_delays"
	case EndInterval:
		return "end_interval"
	case EndAllIntervals:
		return "end_all_intervals"
	case CycleBoundHit:
		return "cycle_bound_hit"
	case TraceBoundHit:
		return "trace_bound_hit"
	default:
		return "unknown"
	}
}

// Event is a single reported step of the search. Config, Interval, Delay
// and Permissiveness are pointers so a Kind that doesn't use one of them
// leaves it nil rather than carrying a misleading zero value.
type Event struct {
	Kind Kind

	TraceLength    int
	Config         *automaton.Configuration
	Action         string
	Interval       *interval.Interval
	Delay          *delay.Delay
	Permissiveness *delay.Delay
	SampleCount    int
}

// Sink receives Events as the engine emits them. It must not block the
// search for long, and must be safe to call from a single goroutine (the
// engine never calls it concurrently).
type Sink func(Event)

// NopSink discards every Event; it is the engine's default.
func NopSink(Event) {}

// NewConsoleSink builds a Sink that writes one indented line per Event to
// w, in the manner of the source's BacktrackConsoleLogger.
func NewConsoleSink(w io.Writer) Sink {
	return func(e Event) {
		indent := ""
		for i := 0; i < e.TraceLength; i++ {
			indent += "  "
		}
		switch e.Kind {
		case StartConfig:
			fmt.Fprintf(w, "%s[config] location=%s perm=%s\n", indent, e.Config.Location, safeDelay(e.Permissiveness))
		case StartInterval:
			fmt.Fprintf(w, "%s[interval] action=%s interval=%s\n", indent, e.Action, safeInterval(e.Interval))
		case FilteredOutInterval:
			fmt.Fprintf(w, "%s[filtered]\n", indent)
		case StartDelay:
			fmt.Fprintf(w, "%s[delay] d=%s\n", indent, safeDelay(e.Delay))
		case GoalReached:
			fmt.Fprintf(w, "%s[goal reached]\n", indent)
		case EndDelay:
			fmt.Fprintf(w, "%s[end delay] perm=%s\n", indent, safeDelay(e.Permissiveness))
		case EndAllDelays:
			fmt.Fprintf(w, "%s[end all delays] perm=%s samples=%d\n", indent, safeDelay(e.Permissiveness), e.SampleCount)
		case EndInterval:
			fmt.Fprintf(w, "%s[end interval] perm=%s\n", indent, safeDelay(e.Permissiveness))
		case EndAllIntervals:
			fmt.Fprintf(w, "%s[end all intervals] perm=%s samples=%d\n", indent, safeDelay(e.Permissiveness), e.SampleCount)
		case CycleBoundHit:
			fmt.Fprintf(w, "%s[cycle bound hit]\n", indent)
		case TraceBoundHit:
			fmt.Fprintf(w, "%s[trace bound hit]\n", indent)
		}
	}
}

func safeDelay(d *delay.Delay) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

func safeInterval(iv *interval.Interval) string {
	if iv == nil {
		return "-"
	}
	return iv.String()
}
