// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package core

import (
	"sort"
	"strings"
	"sync"

	"github.com/samber/oops"
)

// Topic names an event stream on the bus. The set of topics is closed: every
// topic the core publishes is declared below, and data-driven topics must be
// introduced through DefineTopic before use.
type Topic string

// String returns the wire name of the topic.
func (t Topic) String() string { return string(t) }

// World lifecycle.
const (
	TopicObjectCreated   Topic = "object_created"
	TopicObjectDestroyed Topic = "object_destroyed"
	TopicObjectMoved     Topic = "object_moved"
	TopicObjectMovedXY   Topic = "object_moved_xy"
)

// Players and sessions.
const (
	TopicPlayerMoved      Topic = "player_moved"
	TopicPlayerSaid       Topic = "player_said"
	TopicPlayerEmoted     Topic = "player_emoted"
	TopicPlayerWhispered  Topic = "player_whispered"
	TopicPlayerDead       Topic = "player_dead"
	TopicStatChanged      Topic = "stat_changed"
	TopicInventoryChanged Topic = "inventory_changed"
	TopicItemUsed         Topic = "item_used"
	TopicAvatarArrived    Topic = "avatar_arrived"
	TopicAvatarDeparted   Topic = "avatar_departed"
)

// Doors, access and containers.
const (
	TopicDoorOpened            Topic = "door_opened"
	TopicDoorClosed            Topic = "door_closed"
	TopicDoorLocked            Topic = "door_locked"
	TopicDoorUnlocked          Topic = "door_unlocked"
	TopicDoorEmergencyLockdown Topic = "door_emergency_lockdown"
	TopicAccessGranted         Topic = "access_granted"
	TopicAccessDenied          Topic = "access_denied"
	TopicContainerItemAdded    Topic = "container_item_added"
	TopicContainerItemRemoved  Topic = "container_item_removed"
)

// Power.
const (
	TopicPowerLoss           Topic = "power_loss"
	TopicPowerRestored       Topic = "power_restored"
	TopicGridOverload        Topic = "grid_overload"
	TopicElectricalHazard    Topic = "electrical_hazard"
	TopicRoomPowerChanged    Topic = "room_power_changed"
	TopicPowerStatusUpdate   Topic = "power_status_update"
	TopicGeneratorOutOfFuel  Topic = "generator_out_of_fuel"
	TopicBatteryActivated    Topic = "battery_activated"
	TopicBatteryDepleted     Topic = "battery_depleted"
	TopicManualPowerFailure  Topic = "manual_power_failure"
	TopicEquipmentPowerOn    Topic = "equipment_power_on"
	TopicEquipmentPowerOff   Topic = "equipment_power_off"
	TopicEquipmentDamaged    Topic = "equipment_damaged"
	TopicCircuitInstalled    Topic = "circuit_installed"
	TopicStructureDamaged    Topic = "structure_damaged"
	TopicStructureDestroyed  Topic = "structure_destroyed"
	TopicStructureRebuilt    Topic = "structure_rebuilt"
	TopicPlayerCloned        Topic = "player_cloned"
	TopicMedicalScan         Topic = "medical_scan"
	TopicEquipmentFailed     Topic = "equipment_failed"
	TopicMaintenanceDue      Topic = "maintenance_due"
	TopicEquipmentRepaired   Topic = "equipment_repaired"
	TopicFluidTransferred    Topic = "fluid_transferred"
	TopicMealCooked          Topic = "meal_cooked"
	TopicDrinkMixed          Topic = "drink_mixed"
	TopicChemicalSynthesized Topic = "chemical_synthesized"
	TopicReactionOccurred    Topic = "reaction_occurred"
)

// Atmosphere and fire.
const (
	TopicAtmosUpdated     Topic = "atmos_updated"
	TopicLeakStarted      Topic = "leak_started"
	TopicLeakFixed        Topic = "leak_fixed"
	TopicBreach           Topic = "breach"
	TopicHullBreach       Topic = "hull_breach"
	TopicFireStarted      Topic = "fire_started"
	TopicFireExtinguished Topic = "fire_extinguished"
)

// Disease and botany.
const (
	TopicDiseaseInfected Topic = "disease_infected"
	TopicDiseaseTick     Topic = "disease_tick"
	TopicDiseaseCured    Topic = "disease_cured"
	TopicSeedPlanted     Topic = "seed_planted"
	TopicPlantMature     Topic = "plant_mature"
	TopicPlantHarvested  Topic = "plant_harvested"
	TopicPlantFertilized Topic = "plant_fertilized"
	TopicPlantGrafted    Topic = "plant_grafted"
	TopicPlantPollinated Topic = "plant_pollinated"
)

// Security, NPCs, events and cargo.
const (
	TopicMotionDetected    Topic = "motion_detected"
	TopicSecurityAlert     Topic = "security_alert"
	TopicSecurityDispatch  Topic = "security_dispatch"
	TopicCrimeReported     Topic = "crime_reported"
	TopicEvidenceCollected Topic = "evidence_collected"
	TopicPlayerArrested    Topic = "player_arrested"
	TopicPlayerReleased    Topic = "player_released"
	TopicCameraAdded       Topic = "camera_added"
	TopicCameraToggled     Topic = "camera_toggled"
	TopicNPCMoved          Topic = "npc_moved"
	TopicNPCSaid           Topic = "npc_said"
	TopicRandomEvent       Topic = "random_event"
	TopicSupplyOrdered     Topic = "supply_ordered"
	TopicSupplyDelivered   Topic = "supply_delivered"
	TopicMarketEvent       Topic = "market_event"
	TopicSupplyTransferred Topic = "supply_transferred"
)

var (
	topicsMu sync.RWMutex
	topics   = map[Topic]struct{}{}
)

func init() {
	for _, t := range []Topic{
		TopicObjectCreated, TopicObjectDestroyed, TopicObjectMoved, TopicObjectMovedXY,
		TopicPlayerMoved, TopicPlayerSaid, TopicPlayerEmoted, TopicPlayerWhispered, TopicPlayerDead,
		TopicStatChanged, TopicInventoryChanged, TopicItemUsed, TopicAvatarArrived, TopicAvatarDeparted,
		TopicDoorOpened, TopicDoorClosed, TopicDoorLocked, TopicDoorUnlocked, TopicDoorEmergencyLockdown,
		TopicAccessGranted, TopicAccessDenied, TopicContainerItemAdded, TopicContainerItemRemoved,
		TopicPowerLoss, TopicPowerRestored, TopicGridOverload, TopicElectricalHazard, TopicRoomPowerChanged,
		TopicPowerStatusUpdate, TopicGeneratorOutOfFuel, TopicBatteryActivated, TopicBatteryDepleted,
		TopicManualPowerFailure, TopicEquipmentPowerOn, TopicEquipmentPowerOff, TopicEquipmentDamaged,
		TopicCircuitInstalled, TopicStructureDamaged, TopicStructureDestroyed, TopicStructureRebuilt,
		TopicPlayerCloned, TopicMedicalScan, TopicEquipmentFailed, TopicMaintenanceDue, TopicEquipmentRepaired,
		TopicFluidTransferred, TopicMealCooked, TopicDrinkMixed, TopicChemicalSynthesized, TopicReactionOccurred,
		TopicAtmosUpdated, TopicLeakStarted, TopicLeakFixed, TopicBreach, TopicHullBreach,
		TopicFireStarted, TopicFireExtinguished,
		TopicDiseaseInfected, TopicDiseaseTick, TopicDiseaseCured,
		TopicSeedPlanted, TopicPlantMature, TopicPlantHarvested, TopicPlantFertilized, TopicPlantGrafted,
		TopicPlantPollinated,
		TopicMotionDetected, TopicSecurityAlert, TopicSecurityDispatch, TopicCrimeReported,
		TopicEvidenceCollected, TopicPlayerArrested, TopicPlayerReleased, TopicCameraAdded, TopicCameraToggled,
		TopicNPCMoved, TopicNPCSaid, TopicRandomEvent,
		TopicSupplyOrdered, TopicSupplyDelivered, TopicMarketEvent, TopicSupplyTransferred,
	} {
		topics[t] = struct{}{}
	}
}

// DefineTopic adds a data-driven topic (for example a random event id) to the
// known set. Names are lowercased; defining an existing topic is a no-op.
func DefineTopic(name string) (Topic, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || strings.ContainsAny(name, " \t\n") {
		return "", oops.Code("INVALID_TOPIC").With("topic", name).Errorf("invalid topic name %q", name)
	}
	t := Topic(name)
	topicsMu.Lock()
	topics[t] = struct{}{}
	topicsMu.Unlock()
	return t, nil
}

// ParseTopic converts a boundary string into a known Topic.
func ParseTopic(name string) (Topic, error) {
	t := Topic(strings.ToLower(strings.TrimSpace(name)))
	if !t.Known() {
		return "", oops.Code("UNKNOWN_TOPIC").With("topic", name).Errorf("unknown topic %q", name)
	}
	return t, nil
}

// Known reports whether the topic is part of the closed set.
func (t Topic) Known() bool {
	topicsMu.RLock()
	defer topicsMu.RUnlock()
	_, ok := topics[t]
	return ok
}

// KnownTopics returns every defined topic in lexical order.
func KnownTopics() []Topic {
	topicsMu.RLock()
	out := make([]Topic, 0, len(topics))
	for t := range topics {
		out = append(out, t)
	}
	topicsMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
