// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// DefaultTimeout bounds one script execution.
const DefaultTimeout = 50 * time.Millisecond

// Call is the context a verb script runs in.
type Call struct {
	Player string
	Object string
	Verb   string
	Args   []string
}

// Result is what a script left behind.
type Result struct {
	// Value is the global result converted to text; empty when unset.
	Value  string
	Output []string
}

// Text joins the output lines and the result value.
func (r Result) Text() string {
	lines := r.Output
	if r.Value != "" {
		lines = append(lines[:len(lines):len(lines)], r.Value)
	}
	return strings.Join(lines, "\n")
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithTimeout overrides the per-execution watchdog.
func WithTimeout(d time.Duration) Option { return func(r *Runtime) { r.timeout = d } }

// WithMaxAlloc overrides the per-execution allocation budget in bytes.
func WithMaxAlloc(n uint64) Option { return func(r *Runtime) { r.maxAlloc = n } }

// Runtime executes compiled programs against a world.
type Runtime struct {
	w        *world.World
	timeout  time.Duration
	maxAlloc uint64
}

// NewRuntime creates a runtime for w.
func NewRuntime(w *world.World, opts ...Option) *Runtime {
	r := &Runtime{w: w, timeout: DefaultTimeout, maxAlloc: DefaultMaxAlloc}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run executes p in a fresh state. Runaway scripts are stopped after the
// watchdog with SCRIPT_TIMEOUT; Lua errors and scripts over the allocation
// budget become SCRIPT_RUNTIME.
func (r *Runtime) Run(ctx context.Context, p *Program, call Call) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	ctx, abort := context.WithCancelCause(ctx)
	watching := make(chan struct{})
	go func() {
		defer close(watching)
		watchAllocs(ctx, abort, r.maxAlloc)
	}()
	defer func() {
		abort(nil)
		<-watching
	}()

	L, err := sandbox(ctx)
	if err != nil {
		return Result{}, err
	}
	defer L.Close()

	out := &Result{}
	L.SetGlobal("mud", r.module(ctx, L, call, out))
	L.SetGlobal("ctx", callTable(L, call))

	L.Push(L.NewFunctionFromProto(p.proto))
	start := time.Now()
	err = L.PCall(0, lua.MultRet, nil)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(context.Cause(ctx), errAllocBudget) {
			slog.Warn("script exceeded memory budget", "script", p.Name, "elapsed", elapsed, "limit", r.maxAlloc)
			return *out, oops.Code("SCRIPT_RUNTIME").With("script", p.Name).With("limit", r.maxAlloc).
				Errorf("script %s exceeded its memory budget", p.Name)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			slog.Warn("script timed out", "script", p.Name, "elapsed", elapsed)
			return *out, oops.Code("SCRIPT_TIMEOUT").With("script", p.Name).With("elapsed", elapsed).
				Errorf("script %s exceeded %s", p.Name, r.timeout)
		}
		return *out, oops.Code("SCRIPT_RUNTIME").With("script", p.Name).Errorf("%s", runtimeMessage(err))
	}
	if v := L.GetGlobal("result"); v != lua.LNil {
		out.Value = v.String()
	}
	return *out, nil
}

// runtimeMessage strips the Lua traceback from err.
func runtimeMessage(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	msg := err.Error()
	if i := strings.Index(msg, "\nstack traceback:"); i >= 0 {
		msg = msg[:i]
	}
	return msg
}

func callTable(L *lua.LState, call Call) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "player", lua.LString(call.Player))
	L.SetField(t, "object", lua.LString(call.Object))
	L.SetField(t, "verb", lua.LString(call.Verb))
	args := L.NewTable()
	for _, a := range call.Args {
		args.Append(lua.LString(a))
	}
	L.SetField(t, "args", args)
	return t
}

func (r *Runtime) module(ctx context.Context, L *lua.LState, call Call, out *Result) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "find", L.NewFunction(func(L *lua.LState) int {
		L.Push(r.entityTable(L, L.CheckString(1)))
		return 1
	}))
	L.SetField(mod, "here", L.NewFunction(func(L *lua.LState) int {
		L.Push(r.entityTable(L, r.w.RoomOf(call.Player)))
		return 1
	}))
	L.SetField(mod, "send", L.NewFunction(func(L *lua.LState) int {
		out.Output = append(out.Output, L.CheckString(1))
		return 0
	}))
	L.SetField(mod, "print", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		out.Output = append(out.Output, strings.Join(parts, "\t"))
		return 0
	}))
	L.SetField(mod, "say", L.NewFunction(func(L *lua.LState) int {
		msg := L.CheckString(1)
		r.w.Publish(ctx, core.TopicPlayerSaid, core.Payload{
			"player_id": call.Player, "room_id": r.w.RoomOf(call.Player), "message": msg, "object_id": call.Object,
		})
		return 0
	}))
	L.SetField(mod, "publish", L.NewFunction(func(L *lua.LState) int {
		topic, err := core.ParseTopic(L.CheckString(1))
		if err != nil {
			L.RaiseError("unknown topic %q", L.CheckString(1))
			return 0
		}
		payload := core.Payload{}
		if t, ok := L.Get(2).(*lua.LTable); ok {
			t.ForEach(func(k, v lua.LValue) {
				payload[k.String()] = fromLua(v)
			})
		}
		payload["script_object"] = call.Object
		r.w.Publish(ctx, topic, payload)
		return 0
	}))
	L.SetField(mod, "clamp", L.NewFunction(func(L *lua.LState) int {
		v, lo, hi := float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), float64(L.CheckNumber(3))
		L.Push(lua.LNumber(min(max(v, lo), hi)))
		return 1
	}))
	L.SetField(mod, "random", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(r.w.Float64()))
		return 1
	}))
	return mod
}

// entityTable is a read-only copy of an entity; nil when it does not exist.
func (r *Runtime) entityTable(L *lua.LState, id string) lua.LValue {
	e, ok := r.w.Get(id)
	if !ok {
		return lua.LNil
	}
	t := L.NewTable()
	L.SetField(t, "id", lua.LString(e.ID))
	L.SetField(t, "name", lua.LString(e.Name))
	L.SetField(t, "description", lua.LString(e.Description))
	L.SetField(t, "location", lua.LString(e.Location))
	kinds := L.NewTable()
	for _, c := range e.Components() {
		kinds.Append(lua.LString(c.Kind()))
	}
	L.SetField(t, "components", kinds)
	if it, ok := world.As[*world.Item](e); ok {
		props := L.NewTable()
		for k, v := range it.Properties {
			L.SetField(props, k, toLua(L, v))
		}
		L.SetField(t, "properties", props)
	}
	if room, ok := world.As[*world.Room](e); ok {
		exits := L.NewTable()
		for _, dir := range room.ExitNames() {
			L.SetField(exits, dir, lua.LString(room.Exits[dir]))
		}
		L.SetField(t, "exits", exits)
		contents := L.NewTable()
		for _, c := range r.w.At(e.ID) {
			contents.Append(lua.LString(c.ID))
		}
		L.SetField(t, "contents", contents)
	}
	return t
}

func toLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	case []any:
		t := L.NewTable()
		for _, e := range x {
			t.Append(toLua(L, e))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, e := range x {
			L.SetField(t, k, toLua(L, e))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(x))
	}
}

func fromLua(v lua.LValue) any {
	switch x := v.(type) {
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		return float64(x)
	case lua.LString:
		return string(x)
	case *lua.LTable:
		if n := x.Len(); n > 0 {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, fromLua(x.RawGetInt(i)))
			}
			return out
		}
		out := map[string]any{}
		x.ForEach(func(k, e lua.LValue) { out[k.String()] = fromLua(e) })
		return out
	default:
		return nil
	}
}
