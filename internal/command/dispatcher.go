// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yakuzadave/pymud-ss13/internal/scheduler"
	"github.com/yakuzadave/pymud-ss13/internal/script"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

var tracer = otel.Tracer("mudss13/command")

// DefaultWatchdog is the handler budget above which a warning is logged.
const DefaultWatchdog = 50 * time.Millisecond

// ScriptVerb is the verb that routes to the script registry:
// verb <object-id> <verb-name> [args...].
const ScriptVerb = "verb"

// Dispatcher handles parsing, alias expansion, permission checks and
// execution of verbs.
type Dispatcher struct {
	registry    *Registry
	aliasCache  *AliasCache      // optional, can be nil
	rateLimiter *RateLimiter     // optional, can be nil
	fence       *scheduler.Fence // optional, can be nil
	watchdog    time.Duration
}

// DispatcherOption configures a Dispatcher during construction.
type DispatcherOption func(*Dispatcher)

// WithAliasCache enables alias resolution.
func WithAliasCache(cache *AliasCache) DispatcherOption {
	return func(d *Dispatcher) {
		d.aliasCache = cache
	}
}

// WithRateLimiter enables per-session rate limiting.
func WithRateLimiter(rl *RateLimiter) DispatcherOption {
	return func(d *Dispatcher) {
		d.rateLimiter = rl
	}
}

// WithFence runs every handler under fence.Command.
func WithFence(f *scheduler.Fence) DispatcherOption {
	return func(d *Dispatcher) {
		d.fence = f
	}
}

// WithWatchdog overrides the slow-handler threshold.
func WithWatchdog(budget time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.watchdog = budget
	}
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) (*Dispatcher, error) {
	if registry == nil {
		return nil, oops.Code("NIL_REGISTRY").Errorf("dispatcher requires a registry")
	}
	d := &Dispatcher{registry: registry, watchdog: DefaultWatchdog}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch parses and executes one input line for exec's session. The
// returned error is the handler failure, already rendered into the result
// as a player message; callers use it for logging and to detect
// ErrSessionEnded.
func (d *Dispatcher) Dispatch(ctx context.Context, exec *CommandExecution, input string) (res Result, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Result{}, nil
	}
	if exec.Services == nil {
		return Result{Type: TypeError, Text: genericFailure}, oops.Code("NIL_SERVICES").Errorf("execution has no services")
	}

	stats := newTally()
	defer stats.flush()

	invokedAs, _ := cutWord(input)
	aliasResult := AliasResult{Resolved: input}
	if d.aliasCache != nil {
		aliasResult = d.aliasCache.Resolve(exec.SessionID, input)
		if aliasResult.WasAlias {
			AliasExpansions.WithLabelValues(aliasResult.AliasUsed).Inc()
		}
	}

	parsed, ok := ParseLine(aliasResult.Resolved)
	if !ok {
		return Result{}, nil
	}
	name := parsed.Verb

	ctx, span := tracer.Start(ctx, "command.execute",
		trace.WithAttributes(
			attribute.String("command.name", name),
			attribute.String("character.id", exec.CharacterID),
			attribute.String("session.id", exec.SessionID.String()),
		),
	)
	defer func() {
		if err != nil && !errors.Is(err, ErrSessionEnded) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	if aliasResult.WasAlias {
		span.SetAttributes(
			attribute.Bool("command.alias_expanded", true),
			attribute.String("command.alias_used", aliasResult.AliasUsed),
		)
	}

	// Rate limiting happens before lookup so unknown verbs cost tokens too.
	if d.rateLimiter != nil && !exec.Admin {
		if allowed, wait := d.rateLimiter.Allow(exec.SessionID); !allowed {
			span.SetAttributes(attribute.Bool("command.rate_limited", true))
			stats.name(name, "core")
			stats.outcome(StatusRateLimited)
			err = ErrRateLimited(wait)
			return d.failure(nil, err), err
		}
	}

	entry, ok := d.registry.Get(name)
	if !ok && name == ScriptVerb && exec.Services.Scripts != nil {
		entry, ok = CommandEntry{Name: ScriptVerb, Handler: RunScriptVerb, Usage: "verb <object> <verb> [args]", Source: "script"}, true
	}
	if !ok {
		stats.name(name, "core")
		stats.outcome(StatusNotFound)
		err = ErrUnknownCommand(name, d.suggest(name)...)
		return d.failure(nil, err), err
	}
	stats.name(entry.Name, entry.Source)
	span.SetAttributes(attribute.String("command.source", entry.Source))

	if (entry.AdminOnly || entry.DebugOnly) && !exec.Admin || entry.DebugOnly && !exec.Services.Debug {
		stats.outcome(StatusPermissionDenied)
		err = ErrPermissionDenied(entry.Name)
		slog.InfoContext(ctx, "verb refused", "command", entry.Name, "character_id", exec.CharacterID)
		return d.failure(nil, err), err
	}

	var out bytes.Buffer
	exec.Output = &out
	exec.Args = parsed.Args
	exec.InvokedAs = strings.ToLower(invokedAs)
	exec.Type = ""

	start := time.Now()
	err = d.invoke(ctx, entry, exec)
	if elapsed := time.Since(start); elapsed > d.watchdog {
		SlowCommands.WithLabelValues(entry.Name).Inc()
		slog.WarnContext(ctx, "command exceeded watchdog budget",
			"command", entry.Name,
			"character_id", exec.CharacterID,
			"elapsed", elapsed,
			"budget", d.watchdog,
		)
	}

	switch {
	case err == nil, errors.Is(err, ErrSessionEnded):
	case errutil.HasCode(err, CodeHandlerPanic):
		stats.outcome(StatusPanic)
		return d.failure(&out, err), err
	default:
		stats.outcome(StatusError)
		logFailure(ctx, entry.Name, exec.CharacterID, err)
		return d.failure(&out, err), err
	}

	typ := exec.Type
	if typ == "" {
		typ = TypeResponse
	}
	return Result{Type: typ, Text: strings.TrimRight(out.String(), "\n")}, err
}

func (d *Dispatcher) invoke(ctx context.Context, entry CommandEntry, exec *CommandExecution) (err error) {
	run := func() {
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(ctx, "command handler panicked",
					"command", entry.Name,
					"character_id", exec.CharacterID,
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()),
				)
				err = oops.Code(CodeHandlerPanic).With("command", entry.Name).Errorf("handler panic: %v", r)
			}
		}()
		err = entry.Handler(ctx, exec)
	}
	if d.fence != nil {
		d.fence.Command(run)
	} else {
		run()
	}
	return err
}

// failure renders err, keeping whatever the handler wrote before failing.
func (d *Dispatcher) failure(out *bytes.Buffer, err error) Result {
	msg := PlayerMessage(err)
	if out != nil && out.Len() > 0 {
		msg = strings.TrimRight(out.String(), "\n") + "\n" + msg
	}
	return Result{Type: TypeError, Text: msg}
}

// suggest returns up to three registered verbs close to name.
func (d *Dispatcher) suggest(name string) []string {
	type cand struct {
		name string
		dist int
	}
	var cands []cand
	for _, e := range d.registry.All() {
		if e.AdminOnly || e.DebugOnly {
			continue
		}
		dist := editDistance(name, e.Name)
		if dist <= 2 && dist < len(e.Name) || strings.HasPrefix(e.Name, name) && len(name) >= 2 {
			cands = append(cands, cand{e.Name, dist})
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].name < cands[j].name
	})
	out := make([]string, 0, 3)
	for _, c := range cands {
		if len(out) == 3 {
			break
		}
		out = append(out, c.name)
	}
	return out
}

func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// logFailure logs handler errors at the level their taxonomy calls for.
func logFailure(ctx context.Context, command, characterID string, err error) {
	switch {
	case errutil.HasCode(err, CodeAccessDenied, CodePermissionDenied):
		slog.InfoContext(ctx, "command denied", "command", command, "character_id", characterID, "error", err)
	case errutil.HasCode(err, CodeScriptCompile, CodeScriptForbidden, CodeScriptRuntime, CodeScriptTimeout):
		slog.WarnContext(ctx, "script failed", "command", command, "character_id", characterID, "error", err)
	case errutil.HasCode(err, CodePersistIO, CodePersistDecode):
		errutil.LogAt(ctx, slog.Default(), slog.LevelError, "command persistence failure", err)
	default:
		slog.DebugContext(ctx, "command execution failed", "command", command, "character_id", characterID, "error", err)
	}
}

// RunScriptVerb executes the script bound to <object>:<verb>.
func RunScriptVerb(ctx context.Context, exec *CommandExecution) error {
	fields := strings.Fields(exec.Args)
	if len(fields) < 2 {
		return ErrInvalidArgs(ScriptVerb, "verb <object> <verb> [args]")
	}
	objectID, verb := fields[0], strings.ToLower(fields[1])
	_, prog, ok := exec.Services.Scripts.ForVerb(objectID, verb)
	if !ok {
		return oops.Code(CodeNotFound).With("object_id", objectID).With("verb", verb).
			Errorf("nothing happens: %s has no verb %s", objectID, verb)
	}
	res, err := exec.Services.Runtime.Run(ctx, prog, script.Call{
		Player: exec.CharacterID,
		Object: objectID,
		Verb:   verb,
		Args:   fields[2:],
	})
	if err != nil {
		return err
	}
	if text := res.Text(); text != "" {
		_, _ = fmt.Fprintln(exec.Output, text)
	}
	return nil
}
