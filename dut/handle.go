// Package dut reaches a device under test through its command-line protocol.
//
// Every device is a separate executable that understands three channels:
//
//	com --action {reset|enable|disable}
//	cfg --address <addr> [--data <value>]
//	sig --data <sample>
//
// A Handle hides the channels behind typed operations. Failures of reads and
// signal drives are folded into the Unavailable value so that scenarios keep
// probing after a device stops answering.
package dut

import (
	"context"
	"time"

	"github.com/sarchlab/akita/v4/sim"
)

// Handle is one device under test.
type Handle interface {
	// Name returns the unit name, e.g. "golden" or "impl3".
	Name() string

	// Reset issues the common-channel reset action.
	Reset(ctx context.Context) error

	// Enable sets the global filter enable through the common channel.
	Enable(ctx context.Context) error

	// Disable clears the global filter enable through the common channel.
	Disable(ctx context.Context) error

	// ReadRegister reads a configuration register. It returns Unavailable
	// if the command fails, prints nothing, or prints something that is not
	// an integer.
	ReadRegister(ctx context.Context, addr uint32) Value

	// WriteRegister writes a configuration register.
	WriteRegister(ctx context.Context, addr uint32, value uint32) error

	// DriveSignal feeds one input sample and returns the output sample the
	// device reports, or Unavailable.
	DriveSignal(ctx context.Context, sample int64) Value
}

// Action is a common-channel action.
type Action string

// Common-channel actions.
const (
	ActionReset   Action = "reset"
	ActionEnable  Action = "enable"
	ActionDisable Action = "disable"
)

// Channel names understood by the device executables.
const (
	ChannelCommon = "com"
	ChannelConfig = "cfg"
	ChannelSignal = "sig"
)

// CommandHandle implements Handle on top of a Transport.
type CommandHandle struct {
	*sim.HookableBase

	name      string
	transport Transport
	radix     Radix
}

// NewCommandHandle creates a handle that runs commands through t.
func NewCommandHandle(name string, t Transport, radix Radix) *CommandHandle {
	return &CommandHandle{
		HookableBase: sim.NewHookableBase(),
		name:         name,
		transport:    t,
		radix:        radix,
	}
}

// Name returns the unit name.
func (h *CommandHandle) Name() string {
	return h.name
}

// Reset issues "com --action reset".
func (h *CommandHandle) Reset(ctx context.Context) error {
	return h.act(ctx, ActionReset)
}

// Enable issues "com --action enable".
func (h *CommandHandle) Enable(ctx context.Context) error {
	return h.act(ctx, ActionEnable)
}

// Disable issues "com --action disable".
func (h *CommandHandle) Disable(ctx context.Context) error {
	return h.act(ctx, ActionDisable)
}

func (h *CommandHandle) act(ctx context.Context, a Action) error {
	_, err := h.invoke(ctx, ChannelCommon, "--action", string(a))
	return err
}

// ReadRegister issues "cfg --address <addr>".
func (h *CommandHandle) ReadRegister(ctx context.Context, addr uint32) Value {
	out, err := h.invoke(ctx, ChannelConfig, "--address", FormatHex(int64(addr)))
	if err != nil {
		return Unavailable
	}

	return ParseValue(out, h.radix)
}

// WriteRegister issues "cfg --address <addr> --data <value>".
func (h *CommandHandle) WriteRegister(
	ctx context.Context,
	addr uint32,
	value uint32,
) error {
	_, err := h.invoke(ctx, ChannelConfig,
		"--address", FormatHex(int64(addr)),
		"--data", FormatHex(int64(value)))

	return err
}

// DriveSignal issues "sig --data <sample>".
func (h *CommandHandle) DriveSignal(ctx context.Context, sample int64) Value {
	out, err := h.invoke(ctx, ChannelSignal, "--data", FormatHex(sample))
	if err != nil {
		return Unavailable
	}

	return ParseValue(out, h.radix)
}

func (h *CommandHandle) invoke(ctx context.Context, args ...string) (string, error) {
	inv := &Invocation{
		ID:   sim.GetIDGenerator().Generate(),
		Unit: h.name,
		Args: args,
	}

	h.InvokeHook(sim.HookCtx{
		Domain: h,
		Pos:    HookPosCommandStart,
		Item:   inv,
	})

	start := time.Now()
	inv.Output, inv.Err = h.transport.Run(ctx, args)
	inv.Duration = time.Since(start)

	h.InvokeHook(sim.HookCtx{
		Domain: h,
		Pos:    HookPosCommandEnd,
		Item:   inv,
	})

	return inv.Output, inv.Err
}
