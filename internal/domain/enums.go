package domain

import "strings"

// BatchStatus is the lifecycle stage of a batch.
type BatchStatus int

const (
	BatchStatusUnknown BatchStatus = iota
	BatchStatusComplete
	BatchStatusTipStarted
	BatchStatusTipping
	BatchStatusBlendStarted
	BatchStatusBlending
	BatchStatusPacking
	BatchStatusInProgress
)

var batchStatusTable = map[string]BatchStatus{
	"complete":      BatchStatusComplete,
	"tip started":   BatchStatusTipStarted,
	"tipping":       BatchStatusTipping,
	"blend started": BatchStatusBlendStarted,
	"blending":      BatchStatusBlending,
	"packing":       BatchStatusPacking,
	"in progress":   BatchStatusInProgress,
}

var batchStatusProgress = map[BatchStatus]int{
	BatchStatusTipStarted:   10,
	BatchStatusTipping:      20,
	BatchStatusBlendStarted: 30,
	BatchStatusInProgress:   40,
	BatchStatusBlending:     50,
	BatchStatusPacking:      80,
}

// ParseBatchStatus maps a raw status label. Labels not in the table map to
// BatchStatusUnknown.
func ParseBatchStatus(raw string) BatchStatus {
	return batchStatusTable[normalize(raw)]
}

// Progress is the rough completion percentage shown for running batches.
func (s BatchStatus) Progress() int {
	return batchStatusProgress[s]
}

func (s BatchStatus) String() string {
	for k, v := range batchStatusTable {
		if v == s {
			return titleCase(k)
		}
	}
	return "Unknown"
}

// EventType classifies a production event.
type EventType int

const (
	EventTypeUnknown EventType = iota
	EventTypeBreak
	EventTypeClean
	EventTypeMachineDown
	EventTypeMeeting
	EventTypeShiftChange
)

type eventTypeInfo struct {
	name     string
	label    string
	category EventCategory
}

var eventTypeInfos = map[EventType]eventTypeInfo{
	EventTypeBreak:       {name: "Break", label: "Break Time", category: EventCategoryPlannedDowntime},
	EventTypeClean:       {name: "Clean", label: "Cleaning", category: EventCategoryCleaning},
	EventTypeMachineDown: {name: "Machine Down", label: "Machine Down", category: EventCategoryMachineDown},
	EventTypeMeeting:     {name: "Meeting", label: "Meetings", category: EventCategoryPlannedDowntime},
	EventTypeShiftChange: {name: "Shift Change", label: "Shift Change", category: EventCategoryPlannedDowntime},
}

var eventTypeTable = map[string]EventType{
	"break":        EventTypeBreak,
	"clean":        EventTypeClean,
	"machine down": EventTypeMachineDown,
	"meeting":      EventTypeMeeting,
	"shift change": EventTypeShiftChange,
}

// EventTypes lists the known event types in display order.
var EventTypes = []EventType{
	EventTypeBreak,
	EventTypeClean,
	EventTypeMachineDown,
	EventTypeMeeting,
	EventTypeShiftChange,
}

// ParseEventType maps a raw event type label.
func ParseEventType(raw string) EventType {
	return eventTypeTable[normalize(raw)]
}

// String returns the source label, e.g. "Machine Down".
func (t EventType) String() string {
	if info, ok := eventTypeInfos[t]; ok {
		return info.name
	}
	return "Unknown"
}

// Label returns the display label used in downtime breakdowns.
func (t EventType) Label() string {
	if info, ok := eventTypeInfos[t]; ok {
		return info.label
	}
	return "Other"
}

// Category returns the broader category an event type belongs to.
func (t EventType) Category() EventCategory {
	if info, ok := eventTypeInfos[t]; ok {
		return info.category
	}
	return EventCategoryOther
}

// EventCategory is the broad grouping of an event.
type EventCategory int

const (
	EventCategoryOther EventCategory = iota
	EventCategoryPlannedDowntime
	EventCategoryCleaning
	EventCategoryMachineDown
)

var eventCategoryTable = map[string]EventCategory{
	"planned downtime": EventCategoryPlannedDowntime,
	"cleaning":         EventCategoryCleaning,
	"machine down":     EventCategoryMachineDown,
}

var eventCategoryNames = map[EventCategory]string{
	EventCategoryPlannedDowntime: "Planned Downtime",
	EventCategoryCleaning:        "Cleaning",
	EventCategoryMachineDown:     "Machine Down",
	EventCategoryOther:           "Other",
}

// ParseEventCategory maps a raw category label. Unknown labels map to
// EventCategoryOther.
func ParseEventCategory(raw string) EventCategory {
	return eventCategoryTable[normalize(raw)]
}

func (c EventCategory) String() string {
	return eventCategoryNames[c]
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
