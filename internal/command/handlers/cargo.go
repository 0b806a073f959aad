// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handlers

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/yakuzadave/pymud-ss13/internal/command"
	"github.com/yakuzadave/pymud-ss13/internal/systems/cargo"
)

// defaultDepartment is charged when the orderer names none.
const defaultDepartment = "cargo"

const orderUsage = "order <quantity> <item> from <vendor> [emergency]"

func cargoSystem(exec *command.CommandExecution) (*cargo.System, error) {
	if exec.Services.Cargo == nil {
		return nil, command.ErrPrecondition("The supply console is offline.")
	}
	return exec.Services.Cargo, nil
}

// OrderHandler places a supply order charged to the cargo budget.
// Usage: order <quantity> <item> from <vendor> [emergency]
func OrderHandler(ctx context.Context, exec *command.CommandExecution) error {
	what, vendor, ok := command.SplitPrep(exec.Args, "from")
	if !ok {
		return command.ErrInvalidArgs("order", orderUsage)
	}
	fields := strings.Fields(what)
	if len(fields) < 2 {
		return command.ErrInvalidArgs("order", orderUsage)
	}
	qty, err := strconv.Atoi(fields[0])
	if err != nil || qty <= 0 {
		return command.ErrInvalidArgs("order", orderUsage)
	}
	item := strings.Join(fields[1:], " ")

	emergency := false
	if v, found := strings.CutSuffix(vendor, " emergency"); found {
		vendor, emergency = strings.TrimSpace(v), true
	}

	sys, err := cargoSystem(exec)
	if err != nil {
		return err
	}
	order, err := sys.OrderSupply(ctx, defaultDepartment, vendor, item, qty, emergency)
	if err != nil {
		return err
	}
	writeOutputf(ctx, exec, "order", "Ordered %d %s from %s for %d credits. Arrives at %s.\n",
		order.Quantity, order.Item, order.Vendor, order.Cost, order.ETA.Format("15:04:05"))
	return nil
}

// PricesHandler lists vendor catalogs, or one vendor's.
func PricesHandler(ctx context.Context, exec *command.CommandExecution) error {
	sys, err := cargoSystem(exec)
	if err != nil {
		return err
	}
	want := strings.TrimSpace(exec.Args)
	shown := 0
	for _, v := range sys.Vendors() {
		if want != "" && !strings.EqualFold(v.Name, want) {
			continue
		}
		shown++
		writeOutputf(ctx, exec, "prices", "%s:\n", v.Name)
		items := make([]string, 0, len(v.Catalog))
		for item := range v.Catalog {
			items = append(items, item)
		}
		sort.Strings(items)
		for _, item := range items {
			price, err := sys.Price(v.Name, item)
			if err != nil {
				continue
			}
			writeOutputf(ctx, exec, "prices", "  %-20s %5d cr (stock %d)\n", item, price, v.Stock[item])
		}
	}
	if shown == 0 {
		if want != "" {
			return command.ErrPrecondition("No vendor named '" + want + "'.")
		}
		writeOutput(ctx, exec, "prices", "No vendors are trading.")
	}
	return nil
}

// BudgetHandler shows a department's credits, stock and any shortages.
func BudgetHandler(ctx context.Context, exec *command.CommandExecution) error {
	sys, err := cargoSystem(exec)
	if err != nil {
		return err
	}
	dept := strings.TrimSpace(exec.Args)
	if dept == "" {
		dept = defaultDepartment
	}
	writeOutputf(ctx, exec, "budget", "%s: %d credits\n", dept, sys.Credits(dept))
	inv := sys.Inventory(dept)
	items := make([]string, 0, len(inv))
	for item := range inv {
		items = append(items, item)
	}
	sort.Strings(items)
	for _, item := range items {
		writeOutputf(ctx, exec, "budget", "  %s x%d\n", item, inv[item])
	}
	if pending := len(sys.Orders()); pending > 0 {
		writeOutputf(ctx, exec, "budget", "%d %s in transit.\n", pending, plural(pending, "order", "orders"))
	}
	if short := sys.Shortages(); len(short) > 0 {
		writeOutput(ctx, exec, "budget", "Shortages: "+strings.Join(short, ", "))
	}
	return nil
}
