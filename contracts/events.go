package contracts

// EmbedEvent names an event emitted by the embedded content
type EmbedEvent string

const (
	EmbedEventInit                EmbedEvent = "init"
	EmbedEventAuthInit            EmbedEvent = "authInit"
	EmbedEventAuthExpire          EmbedEvent = "ThoughtspotAuthExpired"
	EmbedEventLoad                EmbedEvent = "load"
	EmbedEventData                EmbedEvent = "data"
	EmbedEventError               EmbedEvent = "Error"
	EmbedEventAlert               EmbedEvent = "alert"
	EmbedEventLiveboardRendered   EmbedEvent = "PinboardRendered"
	EmbedEventVizPointClick       EmbedEvent = "vizPointClick"
	EmbedEventVizPointDoubleClick EmbedEvent = "vizPointDoubleClick"
	EmbedEventCustomAction        EmbedEvent = "customAction"
	EmbedEventDrillDown           EmbedEvent = "drillDown"
	EmbedEventFilterChanged       EmbedEvent = "filterChanged"
	EmbedEventDialogOpen          EmbedEvent = "dialog-open"
	EmbedEventDialogClose         EmbedEvent = "dialog-close"
	EmbedEventRouteChange         EmbedEvent = "ROUTE_CHANGE"
	EmbedEventQueryChanged        EmbedEvent = "queryChanged"
	EmbedEventAddRemoveColumns    EmbedEvent = "addRemoveColumns"
)

// HostEvent names a call the host can trigger inside the embedded content
type HostEvent string

const (
	HostEventReload               HostEvent = "reload"
	HostEventSearch               HostEvent = "search"
	HostEventDrillDown            HostEvent = "triggerDrillDown"
	HostEventSetVisibleVizs       HostEvent = "SetPinboardVisibleVizs"
	HostEventUpdateRuntimeFilters HostEvent = "UpdateRuntimeFilters"
	HostEventNavigate             HostEvent = "Navigate"
	HostEventPin                  HostEvent = "pin"
	HostEventDownloadAsPdf        HostEvent = "downloadAsPdf"
	HostEventGetFilters           HostEvent = "getFilters"
	HostEventGetTabs              HostEvent = "getTabs"
	HostEventSetActiveTab         HostEvent = "SetActiveTab"
)

// EventProps maps host property names to the content event they subscribe to.
// A property is treated as a subscription only when it appears here
var EventProps = map[string]EmbedEvent{
	"onInit":                EmbedEventInit,
	"onAuthInit":            EmbedEventAuthInit,
	"onAuthExpire":          EmbedEventAuthExpire,
	"onLoad":                EmbedEventLoad,
	"onData":                EmbedEventData,
	"onError":               EmbedEventError,
	"onAlert":               EmbedEventAlert,
	"onLiveboardRendered":   EmbedEventLiveboardRendered,
	"onVizPointClick":       EmbedEventVizPointClick,
	"onVizPointDoubleClick": EmbedEventVizPointDoubleClick,
	"onCustomAction":        EmbedEventCustomAction,
	"onDrillDown":           EmbedEventDrillDown,
	"onFilterChanged":       EmbedEventFilterChanged,
	"onDialogOpen":          EmbedEventDialogOpen,
	"onDialogClose":         EmbedEventDialogClose,
	"onRouteChange":         EmbedEventRouteChange,
	"onQueryChanged":        EmbedEventQueryChanged,
	"onAddRemoveColumns":    EmbedEventAddRemoveColumns,
}

// LookupEventProp returns the event a property name subscribes to
func LookupEventProp(prop string) (EmbedEvent, bool) {
	ev, ok := EventProps[prop]
	return ev, ok
}

// HostEvents lists every known host event
func HostEvents() []HostEvent {
	return []HostEvent{
		HostEventReload,
		HostEventSearch,
		HostEventDrillDown,
		HostEventSetVisibleVizs,
		HostEventUpdateRuntimeFilters,
		HostEventNavigate,
		HostEventPin,
		HostEventDownloadAsPdf,
		HostEventGetFilters,
		HostEventGetTabs,
		HostEventSetActiveTab,
	}
}
