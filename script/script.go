// Package script runs user-written Lua scenarios.
//
// A script sees the unit through a small set of globals:
//
//	dut.name                         unit name
//	dut.reset() dut.enable() dut.disable()
//	dut.read(addr)                   number, or nil if unavailable
//	dut.write(addr, value)           true, or false and a message
//	dut.drive(sample)                number, or nil if unavailable
//	addr.CSR addr.COEF addr.OUTCAP   register addresses
//	csr.decode(word)                 table of field values
//	csr.encode(fields)               register word
//	record(name, value[, expected])  scalar observation, nil is unavailable
//	append(name, value)              grow a sequence observation
//	note(text)                       remark shown in the report
//
// Results are compared with the golden unit like any standard scenario.
package script

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	lua "github.com/yuin/gopher-lua"

	"github.com/sarchlab/firverify/dut"
	"github.com/sarchlab/firverify/scenario"
)

// Scenario is a Lua script run as a scenario.
type Scenario struct {
	name     string
	source   string
	platform scenario.Platform
}

// New creates a scenario from source text.
func New(name, source string, platform scenario.Platform) *Scenario {
	return &Scenario{
		name:     name,
		source:   source,
		platform: platform,
	}
}

// Load reads a script file. The scenario is named after the file without
// its extension.
func Load(fs afero.Fs, path string, platform scenario.Platform) (*Scenario, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("loading script: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	return New(name, string(src), platform), nil
}

// Name returns the script name.
func (s *Scenario) Name() string {
	return s.name
}

// Run executes the script against h. A script that fails to compile or
// raises an error is reported as a scenario error.
func (s *Scenario) Run(ctx context.Context, h dut.Handle) (*scenario.Result, error) {
	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	r := scenario.NewResult(s.name, h.Name(), scenario.ReferenceGolden)
	b := &binding{
		ctx:      ctx,
		handle:   h,
		platform: s.platform,
		result:   r,
		seqs:     make(map[string][]dut.Value),
	}
	b.install(L)

	if err := L.DoString(s.source); err != nil {
		return nil, fmt.Errorf("script %s: %w", s.name, err)
	}

	b.flushSequences()

	return r, nil
}

type binding struct {
	ctx      context.Context
	handle   dut.Handle
	platform scenario.Platform
	result   *scenario.Result

	seqs     map[string][]dut.Value
	seqOrder []string
}

func (b *binding) install(L *lua.LState) {
	dutTable := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"reset":   b.action(b.handle.Reset),
		"enable":  b.action(b.handle.Enable),
		"disable": b.action(b.handle.Disable),
		"read":    b.read,
		"write":   b.write,
		"drive":   b.drive,
	})
	dutTable.RawSetString("name", lua.LString(b.handle.Name()))
	L.SetGlobal("dut", dutTable)

	addrTable := L.NewTable()
	for _, reg := range b.platform.Addresses.Registers() {
		addrTable.RawSetString(reg.Name, lua.LNumber(reg.Address))
	}
	L.SetGlobal("addr", addrTable)

	L.SetGlobal("csr", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"decode": b.decode,
		"encode": b.encode,
	}))

	L.SetGlobal("record", L.NewFunction(b.record))
	L.SetGlobal("append", L.NewFunction(b.appendValue))
	L.SetGlobal("note", L.NewFunction(b.note))
}

func pushValue(L *lua.LState, v dut.Value) {
	n, ok := v.Get()
	if !ok {
		L.Push(lua.LNil)
		return
	}

	L.Push(lua.LNumber(n))
}

func checkValue(L *lua.LState, n int) dut.Value {
	switch v := L.Get(n).(type) {
	case *lua.LNilType:
		return dut.Unavailable
	case lua.LNumber:
		return dut.Available(int64(v))
	default:
		L.ArgError(n, "number or nil expected")
		return dut.Unavailable
	}
}

func checkAddress(L *lua.LState, n int) uint32 {
	a := L.CheckInt64(n)
	if a < 0 || a > 0xFFFFFFFF {
		L.ArgError(n, "address out of range")
	}

	return uint32(a)
}

func (b *binding) action(f func(context.Context) error) lua.LGFunction {
	return func(L *lua.LState) int {
		if err := f(b.ctx); err != nil {
			L.Push(lua.LFalse)
			L.Push(lua.LString(err.Error()))
			return 2
		}

		L.Push(lua.LTrue)
		return 1
	}
}

func (b *binding) read(L *lua.LState) int {
	pushValue(L, b.handle.ReadRegister(b.ctx, checkAddress(L, 1)))
	return 1
}

func (b *binding) write(L *lua.LState) int {
	addr := checkAddress(L, 1)
	value := uint32(L.CheckInt64(2))

	return b.action(func(ctx context.Context) error {
		return b.handle.WriteRegister(ctx, addr, value)
	})(L)
}

func (b *binding) drive(L *lua.LState) int {
	pushValue(L, b.handle.DriveSignal(b.ctx, L.CheckInt64(1)))
	return 1
}

func (b *binding) decode(L *lua.LState) int {
	v := checkValue(L, 1)
	word, ok := v.Uint32()
	if !ok {
		L.Push(lua.LNil)
		return 1
	}

	r := b.platform.Layout.Decode(word)
	t := L.NewTable()
	for _, f := range b.platform.Layout.Fields() {
		t.RawSetString(f.Name, lua.LNumber(r.Get(f.Name)))
	}
	L.Push(t)

	return 1
}

func (b *binding) encode(L *lua.LState) int {
	t := L.CheckTable(1)
	r := b.platform.Layout.Decode(0)

	t.ForEach(func(k, v lua.LValue) {
		name := k.String()
		n, isNum := v.(lua.LNumber)
		if !isNum {
			L.RaiseError("csr.encode: field %s is not a number", name)
		}
		if _, ok := r.Lookup(name); !ok {
			L.RaiseError("csr.encode: layout %s has no field %s",
				b.platform.Layout.Name(), name)
		}
		r = r.With(name, uint32(int64(n)))
	})

	L.Push(lua.LNumber(r.Encode()))

	return 1
}

func (b *binding) record(L *lua.LState) int {
	name := L.CheckString(1)

	if t, ok := L.Get(2).(*lua.LTable); ok {
		vs := make([]dut.Value, 0, t.Len())
		for i := 1; i <= t.Len(); i++ {
			n, isNum := t.RawGetInt(i).(lua.LNumber)
			if !isNum {
				L.ArgError(2, "sequence elements must be numbers, use append for gaps")
			}
			vs = append(vs, dut.Available(int64(n)))
		}
		b.result.RecordSequence(name, vs)

		return 0
	}

	v := checkValue(L, 2)
	if L.GetTop() >= 3 {
		b.result.RecordExpected(name, v, checkValue(L, 3))
		return 0
	}

	b.result.Record(name, v)

	return 0
}

func (b *binding) appendValue(L *lua.LState) int {
	name := L.CheckString(1)
	if _, ok := b.seqs[name]; !ok {
		b.seqOrder = append(b.seqOrder, name)
	}

	b.seqs[name] = append(b.seqs[name], checkValue(L, 2))

	return 0
}

func (b *binding) note(L *lua.LState) int {
	b.result.Notef("%s", L.CheckString(1))
	return 0
}

func (b *binding) flushSequences() {
	for _, name := range b.seqOrder {
		b.result.RecordSequence(name, b.seqs[name])
	}
}
