package events

// EventRouter fans settlement events out to bus subscribers. The engine
// takes an optional router; a nil router drops every event.
type EventRouter struct {
	eventBus *EventBus
}

// NewEventRouter creates a new EventRouter instance
func NewEventRouter(eventBus *EventBus) *EventRouter {
	return &EventRouter{eventBus: eventBus}
}

// PublishSettlementEvent publishes a settlement event to all subscribers
func (er *EventRouter) PublishSettlementEvent(event SettlementEvent) {
	if er == nil || er.eventBus == nil {
		return
	}
	er.eventBus.Publish(event)
}
