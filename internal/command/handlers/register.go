// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/world"
)

// RegisterAll registers all core command handlers with the registry.
// Panics if any registration fails (indicates a programming error).
func RegisterAll(reg *command.Registry) {
	// Navigation and perception
	reg.MustRegister(
		command.CommandEntry{Name: "look", Handler: LookHandler, Help: "Look at your surroundings or a target", Usage: "look [at] [target]"},
		command.CommandEntry{Name: "examine", Handler: ExamineHandler, Help: "Examine an object closely", Usage: "examine <object>", Aliases: []string{"x"}},
		command.CommandEntry{Name: "go", Handler: MoveHandler, Help: "Move through an exit", Usage: "go <direction>", Aliases: []string{"move", "walk"}},
	)
	for _, dir := range world.Directions {
		reg.MustRegister(command.CommandEntry{
			Name:    dir,
			Handler: DirectionHandler(dir),
			Help:    "Move " + dir,
			Usage:   dir,
		})
	}

	// Communication and self
	reg.MustRegister(
		command.CommandEntry{Name: "say", Handler: SayHandler, Help: "Speak to everyone in the room", Usage: "say <message>"},
		command.CommandEntry{Name: "emote", Handler: EmoteHandler, Help: "Perform an action", Usage: "emote <action>", Aliases: []string{"me", "pose"}},
		command.CommandEntry{Name: "whisper", Handler: WhisperHandler, Help: "Speak privately to someone nearby", Usage: "whisper <player> <message>"},
		command.CommandEntry{Name: "status", Handler: StatusHandler, Help: "Show your vitals", Usage: "status", Aliases: []string{"stats"}},
		command.CommandEntry{Name: "who", Handler: WhoHandler, Help: "List connected players", Usage: "who"},
		command.CommandEntry{Name: "help", Handler: HelpHandler, Help: "List commands or describe one", Usage: "help [command|pattern]"},
		command.CommandEntry{Name: "alias", Handler: AliasHandler, Help: "List or define your shortcuts", Usage: aliasUsage},
		command.CommandEntry{Name: "unalias", Handler: UnaliasHandler, Help: "Remove a shortcut", Usage: "unalias <shortcut>"},
		command.CommandEntry{Name: "quit", Handler: QuitHandler, Help: "Disconnect from the game", Usage: "quit", Aliases: []string{"logout", "exit"}},
		command.CommandEntry{Name: "boot", Handler: BootHandler, Help: "Disconnect a player (yourself unless admin)", Usage: "boot <player> [reason]"},
	)

	// Objects
	reg.MustRegister(
		command.CommandEntry{Name: "get", Handler: GetHandler, Help: "Pick something up", Usage: "get <item> [from <container>]", Aliases: []string{"take"}},
		command.CommandEntry{Name: "drop", Handler: DropHandler, Help: "Drop a carried item", Usage: "drop <item>"},
		command.CommandEntry{Name: "put", Handler: PutHandler, Help: "Put an item in a container", Usage: "put <item> in <container>"},
		command.CommandEntry{Name: "inventory", Handler: InventoryHandler, Help: "List what you carry", Usage: "inventory", Aliases: []string{"inv"}},
		command.CommandEntry{Name: "wear", Handler: WearHandler, Help: "Equip a carried item", Usage: "wear <item> [on <slot>]", Aliases: []string{"equip"}},
		command.CommandEntry{Name: "remove", Handler: RemoveHandler, Help: "Take off a worn item", Usage: "remove <item|slot>", Aliases: []string{"unequip"}},
		command.CommandEntry{Name: "use", Handler: UseHandler, Help: "Use an item", Usage: "use <item>"},
		command.CommandEntry{Name: "open", Handler: DoorHandler("open"), Help: "Open a door or container", Usage: "open <direction|object>"},
		command.CommandEntry{Name: "close", Handler: DoorHandler("close"), Help: "Close a door or container", Usage: "close <direction|object>"},
		command.CommandEntry{Name: "lock", Handler: DoorHandler("lock"), Help: "Lock a door or container", Usage: "lock <direction|object>"},
		command.CommandEntry{Name: "unlock", Handler: DoorHandler("unlock"), Help: "Unlock a door or container", Usage: "unlock <direction|object>"},
	)

	// Departments
	reg.MustRegister(
		command.CommandEntry{Name: "service", Handler: ServiceHandler, Help: "Service a machine", Usage: "service <machine>"},
		command.CommandEntry{Name: "inspect", Handler: InspectHandler, Help: "Check a machine's condition", Usage: "inspect <machine>"},
		command.CommandEntry{Name: "repair", Handler: RepairHandler, Help: "Repair damaged equipment", Usage: "repair <object>"},
		command.CommandEntry{Name: "fixleak", Handler: FixLeakHandler, Help: "Seal hull leaks here", Usage: "fixleak"},
		command.CommandEntry{Name: "install", Handler: InstallHandler, Help: "Install a part in a circuit", Usage: "install <part> in <circuit>"},
		command.CommandEntry{Name: "power", Handler: PowerHandler, Help: "Show power grid status", Usage: "power [grid]"},
		command.CommandEntry{Name: "atmos", Handler: AtmosHandler, Help: "Read the air in this room", Usage: "atmos", Aliases: []string{"air"}},
		command.CommandEntry{Name: "scan", Handler: ScanHandler, Help: "Use a medical scanner", Usage: "scan [patient]"},
		command.CommandEntry{Name: "clone", Handler: CloneHandler, Help: "Clone a dead crew member", Usage: "clone <player>"},
		command.CommandEntry{Name: "plant", Handler: PlantHandler, Help: "Plant a seed here", Usage: "plant <species>"},
		command.CommandEntry{Name: "harvest", Handler: HarvestHandler, Help: "Harvest a grown plant", Usage: "harvest <plant>"},
		command.CommandEntry{Name: "analyze", Handler: AnalyzeHandler, Help: "Analyze a plant", Usage: "analyze <plant>"},
		command.CommandEntry{Name: "fertilize", Handler: FertilizeHandler, Help: "Treat a plant with a chemical", Usage: "fertilize <plant> with <chemical>"},
		command.CommandEntry{Name: "graft", Handler: GraftHandler, Help: "Graft one plant onto another", Usage: "graft <plant> with <donor>"},
		command.CommandEntry{Name: "cook", Handler: CookHandler, Help: "Cook a meal", Usage: "cook <ingredient> [ingredient...]"},
		command.CommandEntry{Name: "mixdrink", Handler: MixDrinkHandler, Help: "Mix a drink", Usage: "mixdrink <ingredient> [ingredient...]", Aliases: []string{"mix"}},
		command.CommandEntry{Name: "synthesize", Handler: SynthesizeHandler, Help: "Synthesize a chemical", Usage: "synthesize <chemical> [chemical...]"},
		command.CommandEntry{Name: "order", Handler: OrderHandler, Help: "Order supplies", Usage: orderUsage},
		command.CommandEntry{Name: "prices", Handler: PricesHandler, Help: "Show vendor prices", Usage: "prices [vendor]"},
		command.CommandEntry{Name: "budget", Handler: BudgetHandler, Help: "Show department credits and stock", Usage: "budget [department]"},
		command.CommandEntry{Name: "report", Handler: ReportHandler, Help: "Report a crime", Usage: "report <suspect> for <description>"},
		command.CommandEntry{Name: "evidence", Handler: EvidenceHandler, Help: "Add evidence to a crime", Usage: "evidence <crime#> <description>"},
		command.CommandEntry{Name: "crimes", Handler: CrimesHandler, Help: "List reported crimes", Usage: "crimes"},
		command.CommandEntry{Name: "monitor", Handler: MonitorHandler, Help: "View a room through cameras", Usage: "monitor <room>"},
	)

	// Admin
	reg.MustRegister(
		command.CommandEntry{Name: "@wall", Handler: WallHandler, Help: "Broadcast to everyone", Usage: "@wall [info|warning|critical] <message>", AdminOnly: true},
		command.CommandEntry{Name: "@shutdown", Handler: ShutdownHandler, Help: "Shut the server down", Usage: "@shutdown [delay_seconds]", AdminOnly: true},
		command.CommandEntry{Name: "@event", Handler: EventHandler, Help: "List or trigger random events", Usage: "@event [id [key=value ...]]", AdminOnly: true},
		command.CommandEntry{Name: "@powerfail", Handler: PowerFailHandler, Help: "Black out a grid", Usage: "@powerfail <grid> [duration]", AdminOnly: true},
		command.CommandEntry{Name: "@breaker", Handler: BreakerHandler, Help: "Flip a grid breaker", Usage: "@breaker <grid> on|off", AdminOnly: true},
		command.CommandEntry{Name: "@leak", Handler: LeakHandler, Help: "Open a hull leak", Usage: "@leak <room> [rate] [duration]", AdminOnly: true},
		command.CommandEntry{Name: "@infect", Handler: InfectHandler, Help: "Infect a player", Usage: "@infect <player> <disease>", AdminOnly: true},
		command.CommandEntry{Name: "@audit", Handler: AuditHandler, Help: "Check world consistency", Usage: "@audit", AdminOnly: true},
		command.CommandEntry{Name: "@arrest", Handler: ArrestHandler, Help: "Jail a player", Usage: "@arrest <player> <duration> [cell]", AdminOnly: true},
		command.CommandEntry{Name: "@release", Handler: ReleaseHandler, Help: "Release a prisoner", Usage: "@release <player>", AdminOnly: true},
		command.CommandEntry{Name: "@accesslog", Handler: AccessLogHandler, Help: "Show door access history", Usage: "@accesslog [lines]", AdminOnly: true},
		command.CommandEntry{Name: "@program", Handler: ProgramHandler, Help: "Attach a scripted verb", Usage: programUsage, AdminOnly: true},
		command.CommandEntry{Name: "@unprogram", Handler: UnprogramHandler, Help: "Remove a scripted verb", Usage: "@unprogram <id>", AdminOnly: true},
		command.CommandEntry{Name: "@scripts", Handler: ScriptsHandler, Help: "List scripted verbs", Usage: "@scripts [pattern]", AdminOnly: true},
	)

	// Debug
	reg.MustRegister(
		command.CommandEntry{Name: "@eval", Handler: EvalHandler, Help: "Run script source once", Usage: "@eval <code>", DebugOnly: true},
		command.CommandEntry{Name: "@verbs", Handler: VerbsHandler, Help: "List registered verbs", Usage: "@verbs [pattern]", DebugOnly: true},
		command.CommandEntry{Name: "@inspect", Handler: InspectEntityHandler, Help: "Dump an entity", Usage: "@inspect <id>", DebugOnly: true},
		command.CommandEntry{Name: "@events", Handler: RecentEventsHandler, Help: "Show recent bus events", Usage: "@events [count]", DebugOnly: true},
	)
}
