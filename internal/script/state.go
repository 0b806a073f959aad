// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package script runs player-authored verbs in a sandboxed Lua subset.
//
//nolint:gocritic // captLocal: L is the idiomatic name for lua.LState
package script

import (
	"context"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
)

// MaxStringLen bounds strings built by string.rep inside a script.
const MaxStringLen = 64 << 10

// Only these libraries are opened. os, io, debug, package and coroutine
// never are.
var sandboxLibs = map[string]lua.LGFunction{
	lua.BaseLibName:   lua.OpenBase,
	lua.TabLibName:    lua.OpenTable,
	lua.StringLibName: lua.OpenString,
	lua.MathLibName:   lua.OpenMath,
}

// Base functions removed after opening: loaders, metatable and raw access,
// the collector and print, which scripts reach as mud.print instead.
var sandboxHidden = []string{
	"dofile", "loadfile", "load", "loadstring", "require", "module",
	"getmetatable", "setmetatable", "rawget", "rawset", "rawequal",
	"getfenv", "setfenv", "collectgarbage", "newproxy", "print",
}

// sandbox returns a fresh state holding only the safe libraries. Cancelling
// ctx aborts whatever chunk the state is running.
func sandbox(ctx context.Context) (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true, CallStackSize: 256, RegistrySize: 20 << 10})
	for name, open := range sandboxLibs {
		L.Push(L.NewFunction(open))
		L.Push(lua.LString(name))
		if err := L.PCall(1, 0, nil); err != nil {
			L.Close()
			return nil, oops.Code("SCRIPT_RUNTIME").With("library", name).Wrapf(err, "open %s", name)
		}
	}
	for _, name := range sandboxHidden {
		L.SetGlobal(name, lua.LNil)
	}
	if str, ok := L.GetGlobal(lua.StringLibName).(*lua.LTable); ok {
		L.SetField(str, "rep", L.NewFunction(boundedRep))
	}
	L.SetContext(ctx)
	return L, nil
}

// boundedRep is string.rep refusing results longer than MaxStringLen.
func boundedRep(L *lua.LState) int {
	s, n := L.CheckString(1), L.CheckInt(2)
	if n <= 0 || s == "" {
		L.Push(lua.LString(""))
		return 1
	}
	if len(s)*n > MaxStringLen || n > MaxStringLen {
		L.RaiseError("string.rep result longer than %d bytes", MaxStringLen)
		return 0
	}
	out := make([]byte, 0, len(s)*n)
	for range n {
		out = append(out, s...)
	}
	L.Push(lua.LString(out))
	return 1
}
