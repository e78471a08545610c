package ecs

import (
	"github.com/phanxgames/sprout"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// SceneEventType is the Donburi event type for sprout scene events.
// Subscribe to this in your ECS systems to react to objects being created,
// changed or removed by commands.
var SceneEventType = events.NewEventType[sprout.Event]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world.
// Events are published to SceneEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) sprout.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event sprout.Event) {
	SceneEventType.Publish(s.world, event)
}
