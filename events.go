package sprout

// EventSink is the interface for optional ECS integration.
// When set on a Session, every change the engine makes to the scene is
// forwarded to it.
type EventSink interface {
	EmitEvent(event Event)
}

// EventType identifies what happened to an object.
type EventType uint8

const (
	EventCreated        EventType = iota // a record was registered
	EventModified                        // the Mutator applied at least one field
	EventDeleted                         // a record was disposed
	EventSelected                        // the selection changed
	EventEffectStarted                   // an effect was requested or replaced
	EventEffectsCleared                  // effects were removed from an object
	EventFailed                          // a generation ended without an asset
)

var eventTypeNames = [...]string{
	EventCreated:        "created",
	EventModified:       "modified",
	EventDeleted:        "deleted",
	EventSelected:       "selected",
	EventEffectStarted:  "effect-started",
	EventEffectsCleared: "effects-cleared",
	EventFailed:         "failed",
}

func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return "unknown"
}

// Event carries one scene change for the ECS bridge.
type Event struct {
	Type     EventType
	ObjectID string
	NodeID   uint32
	Intent   IntentType
	Text     string // the submission that caused it, when there was one
	Detail   string // mutation summary, effect name, or error text
}
