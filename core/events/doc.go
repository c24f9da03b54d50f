// Package events defines the simulation events emitted on the event bus.
//
// Available event types:
//   - RequestEvent: a request entered or left the pending queue
//   - FloorEvent: the floor indicator of a car changed
//   - DirectionEvent: a car changed its travel direction
//   - TripEvent: a car started a trip
//   - RerouteEvent: a moving car retargeted its trip
//   - ArrivalEvent: a car arrived and served a floor
//   - IdleEvent: a car settled with nothing left to do
//   - AssignmentEvent: the dispatcher handed floors to a car
package events
