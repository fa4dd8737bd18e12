package dut

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sarchlab/akita/v4/sim"
)

// HookPosCommandStart marks when a command is about to be sent to a device.
var HookPosCommandStart = &sim.HookPos{Name: "DUT Command Start"}

// HookPosCommandEnd marks when a device command has returned.
var HookPosCommandEnd = &sim.HookPos{Name: "DUT Command End"}

// LevelTrace is below Debug and records every device command.
const LevelTrace slog.Level = slog.LevelDebug - 4

// Trace logs at LevelTrace through the default logger.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}

// Invocation records one command sent to a device.
type Invocation struct {
	ID       string
	Unit     string
	Args     []string
	Output   string
	Err      error
	Duration time.Duration
}

// CommandLine returns the arguments as they would be typed.
func (i *Invocation) CommandLine() string {
	return i.Unit + " " + strings.Join(i.Args, " ")
}

// LogHook writes every invocation to the default logger.
type LogHook struct{}

// Func implements sim.Hook.
func (LogHook) Func(ctx sim.HookCtx) {
	inv, ok := ctx.Item.(*Invocation)
	if !ok {
		return
	}

	switch ctx.Pos {
	case HookPosCommandStart:
		Trace("DUTCommand",
			"Behavior", "Start",
			"ID", inv.ID,
			"Unit", inv.Unit,
			"Cmd", inv.CommandLine(),
		)
	case HookPosCommandEnd:
		if inv.Err != nil {
			slog.Warn("DUTCommand",
				"Behavior", "Failed",
				"ID", inv.ID,
				"Unit", inv.Unit,
				"Cmd", inv.CommandLine(),
				"Error", inv.Err,
			)
			return
		}

		Trace("DUTCommand",
			"Behavior", "Done",
			"ID", inv.ID,
			"Unit", inv.Unit,
			"Output", strings.TrimSpace(inv.Output),
			"Duration", inv.Duration,
		)
	}
}

// UnitStats summarises the commands sent to one unit.
type UnitStats struct {
	Invocations int
	Failures    int
	Busy        time.Duration
}

// Transcript counts invocations per unit. One transcript may be attached to
// handles that run concurrently.
type Transcript struct {
	lock   sync.Mutex
	byUnit map[string]*UnitStats
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{
		byUnit: make(map[string]*UnitStats),
	}
}

// Func implements sim.Hook.
func (t *Transcript) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosCommandEnd {
		return
	}

	inv, ok := ctx.Item.(*Invocation)
	if !ok {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	s, ok := t.byUnit[inv.Unit]
	if !ok {
		s = &UnitStats{}
		t.byUnit[inv.Unit] = s
	}

	s.Invocations++
	s.Busy += inv.Duration
	if inv.Err != nil {
		s.Failures++
	}
}

// Stats returns the counters of one unit.
func (t *Transcript) Stats(unit string) UnitStats {
	t.lock.Lock()
	defer t.lock.Unlock()

	if s, ok := t.byUnit[unit]; ok {
		return *s
	}

	return UnitStats{}
}

// Units returns the units seen so far, sorted by name.
func (t *Transcript) Units() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	units := make([]string, 0, len(t.byUnit))
	for u := range t.byUnit {
		units = append(units, u)
	}
	sort.Strings(units)

	return units
}
