// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package station assembles the world, subsystems, sessions and transports
// from configuration and runs them until shutdown.
package station

import (
	"context"
	"errors"
	"log/slog"
	"net"
		"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/yakuzadave/pymud-ss13/internal/auth"
	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/command/handlers"
	"github.com/yakuzadave/pymud-ss13/internal/config"
	"github.com/yakuzadave/pymud-ss13/internal/core"
	"github.com/yakuzadave/pymud-ss13/internal/observability"
	"github.com/yakuzadave/pymud-ss13/internal/persistence"
	"github.com/yakuzadave/pymud-ss13/internal/scheduler"
	"github.com/yakuzadave/pymud-ss13/internal/script"
	"github.com/yakuzadave/pymud-ss13/internal/session"
	"github.com/yakuzadave/pymud-ss13/internal/systems/atmos"
	"github.com/yakuzadave/pymud-ss13/internal/systems/botany"
	"github.com/yakuzadave/pymud-ss13/internal/systems/cargo"
	"github.com/yakuzadave/pymud-ss13/internal/systems/chemistry"
	"github.com/yakuzadave/pymud-ss13/internal/systems/disease"
	"github.com/yakuzadave/pymud-ss13/internal/systems/events"
	"github.com/yakuzadave/pymud-ss13/internal/systems/kitchen"
	"github.com/yakuzadave/pymud-ss13/internal/systems/maintenance"
	"github.com/yakuzadave/pymud-ss13/internal/systems/npcai"
	"github.com/yakuzadave/pymud-ss13/internal/systems/plumbing"
	"github.com/yakuzadave/pymud-ss13/internal/systems/power"
	"github.com/yakuzadave/pymud-ss13/internal/systems/security"
	"github.com/yakuzadave/pymud-ss13/internal/transport/telnet"
	"github.com/yakuzadave/pymud-ss13/internal/transport/websocket"
	"github.com/yakuzadave/pymud-ss13/internal/world"
	"github.com/yakuzadave/pymud-ss13/pkg/errutil"
)

// Error codes. Transports report bind failures as CodeBind.
const (
	CodeBoot = "STATION_BOOT"
	CodeBind = "BIND_FAILED"
)

// ShutdownNotice is sent to every session when the server stops.
const ShutdownNotice = "Server shutting down."

// AccountsFile is the account store under the data directory.
const AccountsFile = "accounts.yaml"

const (
	recorderSize = 1024
	drainTimeout = 10 * time.Second
)

// Option configures a Station.
type Option func(*Station)

// WithMetrics records session and snapshot counters into m.
func WithMetrics(m *observability.Metrics) Option { return func(s *Station) { s.metrics = m } }

// WithRegistry registers the rate limiter gauge with reg.
func WithRegistry(reg prometheus.Registerer) Option { return func(s *Station) { s.registry = reg } }

// Station is one running game server.
type Station struct {
	cfg *config.Config

	Bus       *core.Bus
	Recorder  *core.Recorder
	World     *world.World
	Fence     *scheduler.Fence
	Scheduler *scheduler.Scheduler
	Services  *command.Services
	Sessions  *session.Manager
	Store     *persistence.Store
	Accounts  *auth.Store
	Autosaver *persistence.Autosaver
	AccessLog *persistence.AccessLog
	Telnet    *telnet.Server
	WebSocket *websocket.Server

	metrics  *observability.Metrics
	registry prometheus.Registerer
	limiter  *command.RateLimiter
	closers  []func()
	consoles sync.WaitGroup

	stopOnce sync.Once
	stop     chan struct{}
	reason   string
	mu       sync.Mutex
	closed   bool
}

// RegisterMetrics registers the package-level collectors of the command,
// scheduler and event bus packages. Call it once per registry.
func RegisterMetrics(reg prometheus.Registerer) {
	command.RegisterMetrics(reg)
	scheduler.RegisterMetrics(reg)
	core.RegisterMetrics(reg)
}

// New builds a station from cfg: it loads the world and data tables,
// creates every subsystem and wires sessions and transports. Nothing runs
// until Run.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (st *Station, err error) {
	s := &Station{cfg: cfg, stop: make(chan struct{}), Fence: &scheduler.Fence{}}
	for _, o := range opts {
		o(s)
	}
	defer func() {
		if err != nil {
			s.release()
		}
	}()

	s.Recorder = core.NewRecorder(recorderSize)
	s.Bus = core.NewBus(core.WithRecorder(s.Recorder))
	s.World = world.New(s.Bus)
	s.Store = persistence.New(cfg.DataDir,
		persistence.WithCompression(cfg.Persistence.Compress),
		persistence.WithRetention(cfg.Persistence.Keep),
	)

	scripts := script.NewRegistry()
	if err := s.loadWorld(ctx, scripts); err != nil {
		return nil, err
	}
	s.ensureStartRoom(ctx)

	services, err := s.buildSystems(scripts)
	if err != nil {
		return nil, err
	}
	s.Services = services

	if err := s.buildSessions(); err != nil {
		return nil, err
	}

	var autosaveOpts []persistence.AutosaveOption
	autosaveOpts = append(autosaveOpts, persistence.WithScripts(scripts))
	if s.metrics != nil {
		autosaveOpts = append(autosaveOpts, persistence.WithSnapshotMetrics(s.metrics))
	}
	s.Autosaver = persistence.NewAutosaver(s.Store, s.World, s.Fence, cfg.Persistence.Interval, autosaveOpts...)

	s.Telnet = telnet.NewServer(hostPort(cfg.Host, cfg.Port), s.Sessions)
	if cfg.WSPort > 0 {
		s.WebSocket = websocket.NewServer(hostPort(cfg.Host, cfg.WSPort), s.Sessions)
	}

	slog.Info("station ready",
		"entities", s.World.Len(),
		"systems", s.Scheduler.Systems(),
		"scripts", len(scripts.Records()),
	)
	return s, nil
}

func hostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// loadWorld restores the newest snapshot when resuming, otherwise reads the
// world data files and saved scripts.
func (s *Station) loadWorld(ctx context.Context, scripts *script.Registry) error {
	if s.cfg.Persistence.Resume {
		path, ok, err := s.Store.LatestSnapshot()
		if err != nil {
			return oops.Code(CodeBoot).Wrapf(err, "find snapshot")
		}
		if ok {
			snap, err := s.Store.ReadSnapshot(path)
			if err != nil {
				return oops.Code(CodeBoot).With("path", path).Wrapf(err, "read snapshot")
			}
			stats := s.Store.Restore(ctx, s.World, snap)
			n := scripts.Restore(snap.Scripts)
			slog.Info("world resumed from snapshot", "path", path, "loaded", stats.Loaded, "skipped", stats.Skipped, "scripts", n)
			return nil
		}
		slog.Info("no snapshot to resume, loading data files")
	}

	stats, err := s.Store.LoadWorld(ctx, s.World)
	if err != nil {
		return oops.Code(CodeBoot).Wrapf(err, "load world")
	}
	slog.Info("world loaded", "dir", s.Store.Root(), "loaded", stats.Loaded, "skipped", stats.Skipped)

	n, err := s.Store.LoadScripts(scripts)
	if err != nil {
		errutil.LogError(slog.Default(), "ignoring saved scripts", err)
	} else if n > 0 {
		slog.Info("scripts loaded", "count", n)
	}
	return nil
}

// ensureStartRoom creates an empty start room when the data set lacks one,
// so a fresh data directory still accepts logins.
func (s *Station) ensureStartRoom(ctx context.Context) {
	id := s.cfg.StartRoom
	if s.World.Has(id) {
		return
	}
	slog.Warn("start room missing, creating an empty one", "room", id)
	e := world.NewEntity(id, id, "An unfinished compartment. Bare deck plating stretches in every direction.")
	e.MustAdd(world.NewRoom())
	if err := s.World.Register(ctx, e); err != nil {
		errutil.LogError(slog.Default(), "create start room", err)
	}
}

// buildSystems creates every subsystem from the data tables and registers
// them with the scheduler in stage order.
func (s *Station) buildSystems(scripts *script.Registry) (*command.Services, error) {
	cfg := s.cfg
	tables := s.Store.LoadTables()
	logTable := func(file string, err error) {
		if err != nil {
			errutil.LogError(slog.Default(), "data table rejected", oops.With("file", file).Wrap(err))
		}
	}

	pwr := power.New(s.World)
	if tables.Power != nil {
		logTable(persistence.PowerFile, pwr.Apply(*tables.Power))
	}

	// Sessions is set before any tick runs.
	notify := func(ctx context.Context, playerID, msg string) {
		if s.Sessions != nil {
			s.Sessions.Notify(ctx, playerID, msg)
		}
	}
	air := atmos.New(s.World, atmos.WithPower(pwr), atmos.WithNotifier(notify))
	s.closers = append(s.closers, air.Close)
	if tables.Atmos != nil {
		logTable(persistence.AtmosFile, air.Apply(*tables.Atmos))
	}

	sick := disease.New(s.World, tables.Diseases)

	fertilizers := tables.Fertilizers
	if fertilizers == nil {
		fertilizers = botany.DefaultFertilizers()
	}
	plants := botany.New(s.World, botany.WithPower(pwr), botany.WithFertilizers(fertilizers))

	pipes := plumbing.New(s.World)
	food := kitchen.NewKitchen(s.World, tables.Recipes)
	drinks := kitchen.NewBar(s.World, tables.Drinks)
	chem := chemistry.New(s.World, tables.Chemistry)
	upkeep := maintenance.New(s.World)
	npcs := npcai.New(s.World)

	var secOpts []security.Option
	accessLog, err := persistence.OpenAccessLog(s.Store.Path(persistence.AccessLogFile))
	if err != nil {
		errutil.LogError(slog.Default(), "access log disabled", err)
	} else {
		s.AccessLog = accessLog
		secOpts = append(secOpts, security.WithAccessLog(accessLog))
	}
	sec := security.New(s.World, secOpts...)
	s.closers = append(s.closers, sec.Close)

	market := cargo.New(s.World)
	if tables.Cargo != nil {
		logTable(persistence.CargoFile, market.Apply(*tables.Cargo))
	}

	random := events.New(s.World, events.WithPower(pwr))
	if tables.Events != nil {
		logTable(persistence.EventsFile, random.Load(tables.Events))
	}
	unwire, err := events.Effects{Power: pwr, Disease: sick, Market: market}.Wire(s.World)
	if err != nil {
		return nil, oops.Code(CodeBoot).Wrapf(err, "wire event effects")
	}
	s.closers = append(s.closers, unwire)

	t := cfg.Ticks
	s.Scheduler = scheduler.New(s.Fence, scheduler.WithBase(t.Base))
	s.Scheduler.Register(scheduler.StagePower, "power", t.Power, pwr)
	s.Scheduler.Register(scheduler.StageAtmos, "atmos", t.Atmos, air)
	s.Scheduler.Register(scheduler.StageMaintenance, "maintenance", t.Maintenance, upkeep)
	s.Scheduler.Register(scheduler.StageDisease, "disease", t.Disease, sick)
	s.Scheduler.Register(scheduler.StageBotany, "botany", t.Botany, plants)
	s.Scheduler.Register(scheduler.StagePlumbing, "plumbing", t.Plumbing, pipes)
	s.Scheduler.Register(scheduler.StageNPC, "npc", t.NPC, npcs)
	s.Scheduler.Register(scheduler.StageEvents, "events", t.Events, random)
	s.Scheduler.Register(scheduler.StageSecurity, "security", t.Security, sec)
	s.Scheduler.Register(scheduler.StageCargo, "cargo", t.Cargo, market)
	s.Scheduler.Register(scheduler.StageChemistry, "chemistry", t.Chemistry, chem)

	services := &command.Services{
		World:        s.World,
		Recorder:     s.Recorder,
		Power:        pwr,
		Atmos:        air,
		Disease:      sick,
		Botany:       plants,
		Plumbing:     pipes,
		Kitchen:      food,
		Bar:          drinks,
		Chemistry:    chem,
		Maintenance:  upkeep,
		Security:     sec,
		NPCs:         npcs,
		Events:       random,
		Cargo:        market,
		Scripts:      scripts,
		Runtime:      script.NewRuntime(s.World, script.WithTimeout(cfg.ScriptTimeout)),
		MoveCooldown: cfg.MoveCooldown,
		Debug:        cfg.Debug,
	}
	return services, nil
}

// buildSessions opens the account store and creates the dispatcher and the
// session manager.
func (s *Station) buildSessions() error {
	cfg := s.cfg
	accounts, err := auth.Open(s.Store.Path(AccountsFile))
	if err != nil {
		return oops.Code(CodeBoot).Wrapf(err, "open accounts")
	}
	s.Accounts = accounts
	for _, name := range cfg.Admins {
		if !accounts.Exists(name) || accounts.IsAdmin(name) {
			continue
		}
		if err := accounts.SetAdmin(name, true); err != nil {
			errutil.LogError(slog.Default(), "promote admin", oops.With("username", name).Wrap(err))
		}
	}

	reg := command.NewRegistry()
	handlers.RegisterAll(reg)
	aliases := command.NewAliasCache()
	aliases.LoadSystemAliases(command.SystemAliases)
	var limiterOpts []command.RateLimiterOption
	if s.registry != nil {
		limiterOpts = append(limiterOpts, command.WithLimiterRegistry(s.registry))
	}
	s.limiter = command.NewRateLimiter(limiterOpts...)
	dispatcher, err := command.NewDispatcher(reg,
		command.WithAliasCache(aliases),
		command.WithRateLimiter(s.limiter),
		command.WithFence(s.Fence),
	)
	if err != nil {
		return oops.Code(CodeBoot).Wrapf(err, "create dispatcher")
	}
	s.Services.Registry = reg
	s.Services.Aliases = aliases

	opts := []session.Option{
		session.WithPlayerStore(s.Store),
		session.WithFence(s.Fence),
		session.WithRateLimiter(s.limiter),
		session.WithShutdown(s.Shutdown),
	}
	if s.metrics != nil {
		opts = append(opts, session.WithMetrics(s.metrics))
	}
	s.Sessions = session.NewManager(session.Config{
		StartRoom:   cfg.StartRoom,
		IdleWarn:    cfg.Idle.Warn,
		IdleTimeout: cfg.Idle.Timeout,
		InputQueue:  cfg.Queues.Input,
		OutputQueue: cfg.Queues.Output,
		Admins:      cfg.IsAdmin,
	}, s.Services, dispatcher, accounts, opts...)
	s.Sessions.Subscribe(s.Bus)
	return nil
}

// Listen binds the transports. Run calls it if needed; calling it first
// makes the bound addresses available.
func (s *Station) Listen() error {
	if err := s.Telnet.Listen(); err != nil {
		return err
	}
	if s.WebSocket != nil {
		return s.WebSocket.Listen()
	}
	return nil
}

// Shutdown asks Run to stop. Only the first reason is kept.
func (s *Station) Shutdown(reason string) {
	s.stopOnce.Do(func() {
		s.reason = reason
		close(s.stop)
	})
}

// Stopping is closed once Shutdown has been called.
func (s *Station) Stopping() <-chan struct{} { return s.stop }

// Run serves clients and drives the scheduler, autosave and idle watchdog
// until ctx is cancelled, Shutdown is called or a transport fails. On the
// way out the running cycle completes, sessions receive a notice and the
// final snapshot is written.
func (s *Station) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	serveCtx, stopServing := context.WithCancel(context.WithoutCancel(ctx))
	defer stopServing()
	workCtx, stopWork := context.WithCancel(ctx)
	defer stopWork()

	errs := make(chan error, 2)
	var serving sync.WaitGroup
	serve := func(name string, run func(context.Context) error) {
		serving.Add(1)
		go func() {
			defer serving.Done()
			if err := run(serveCtx); err != nil {
				errs <- oops.With("transport", name).Wrap(err)
			}
		}()
	}
	serve(telnet.Transport, s.Telnet.Run)
	wsAddr := ""
	if s.WebSocket != nil {
		serve(websocket.Transport, s.WebSocket.Run)
		wsAddr = s.WebSocket.Addr()
	}

	var working sync.WaitGroup
	working.Add(3)
	go func() {
		defer working.Done()
		if err := s.Scheduler.Run(workCtx); err != nil {
			errutil.LogError(slog.Default(), "scheduler stopped", err)
		}
	}()
	go func() {
		defer working.Done()
		s.Autosaver.Run(workCtx)
	}()
	go func() {
		defer working.Done()
		s.Sessions.Watch(workCtx, session.DefaultIdleCheck)
	}()

	slog.Info("station running", "telnet", s.Telnet.Addr(), "websocket", wsAddr)

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	case <-s.stop:
		slog.Info("shutdown requested", "reason", s.reason)
	case runErr = <-errs:
		errutil.LogError(slog.Default(), "transport failed, shutting down", runErr)
	}

	stopWork()
	working.Wait()

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()
	if err := s.Sessions.Close(drainCtx, ShutdownNotice); err != nil {
		errutil.LogError(slog.Default(), "sessions did not drain", err)
	}
	stopServing()
	serving.Wait()
	s.consoles.Wait()

	if err := s.Close(drainCtx); err != nil && runErr == nil {
		runErr = err
	}
	slog.Info("shutdown complete")
	return runErr
}

// Close ends any remaining sessions, writes the final snapshot and the
// scripts file, and releases the station's resources. It is safe to call
// more than once.
func (s *Station) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	defer s.release()

	if err := s.Sessions.Close(ctx, ShutdownNotice); err != nil {
		errutil.LogError(slog.Default(), "sessions did not drain", err)
	}
	var errs []error
	if path, err := s.Autosaver.SaveNow(ctx); err != nil {
		errs = append(errs, err)
	} else {
		slog.Info("final snapshot written", "path", path)
	}
	if err := s.Store.SaveScripts(ctx, s.Services.Scripts); err != nil {
		errs = append(errs, err)
	}
	for _, err := range errs {
		errutil.LogError(slog.Default(), "final save failed", err)
	}
	return errors.Join(errs...)
}

// release stops background helpers and closes files.
func (s *Station) release() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
	if s.AccessLog != nil {
		if err := s.AccessLog.Close(); err != nil {
			errutil.LogError(slog.Default(), "close access log", err)
		}
	}
}
