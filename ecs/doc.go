// Package ecs provides ECS adapters for sprout's scene events.
//
// The primary adapter is [NewDonburiSink], which bridges sprout events
// (created, modified, deleted, selected, effect started/cleared, failed)
// into a [Donburi] world as typed events. Subscribe to [SceneEventType] in
// your ECS systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	session.SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
