package handlers

// RoomOp distinguishes room membership changes requested by a handler.
type RoomOp int

const (
	roomOpUnknown RoomOp = iota
	roomOpJoin
	roomOpLeave
)

// Emission describes a single outbound event targeted at one socket.
type Emission struct {
	socketID string
	event    string
	payload  any
}

func newEmission(socketID, event string, payload any) Emission {
	return Emission{socketID: socketID, event: event, payload: payload}
}

// SocketID returns the target socket id.
func (e Emission) SocketID() string { return e.socketID }

// Event returns the event name.
func (e Emission) Event() string { return e.event }

// Payload returns the event payload.
func (e Emission) Payload() any { return e.payload }

// RoomChange describes a room membership change. An empty socket id
// targets the calling socket.
type RoomChange struct {
	op       RoomOp
	room     string
	socketID string
}

func joinRoom(room string) RoomChange  { return RoomChange{op: roomOpJoin, room: room} }
func leaveRoom(room string) RoomChange { return RoomChange{op: roomOpLeave, room: room} }

func leaveRoomFor(socketID, room string) RoomChange {
	return RoomChange{op: roomOpLeave, room: room, socketID: socketID}
}

// IsJoin reports whether the calling socket should join the room.
func (r RoomChange) IsJoin() bool { return r.op == roomOpJoin }

// IsLeave reports whether the calling socket should leave the room.
func (r RoomChange) IsLeave() bool { return r.op == roomOpLeave }

// Room returns the room name (the game code).
func (r RoomChange) Room() string { return r.room }

// SocketID returns the targeted socket id; empty means the calling
// socket.
func (r RoomChange) SocketID() string { return r.socketID }

// EventResult is the output of a handler invocation: the emissions to
// deliver and the room changes to apply for the calling socket. All
// emissions for one operation are produced before the handler returns.
type EventResult struct {
	emissions []Emission
	rooms     []RoomChange
}

// NewEventResult constructs a handler result.
func NewEventResult(emissions []Emission, rooms []RoomChange) EventResult {
	return EventResult{emissions: emissions, rooms: rooms}
}

// Emissions returns the outbound emissions requested by the handler.
func (r EventResult) Emissions() []Emission { return r.emissions }

// Rooms returns the room changes requested by the handler.
func (r EventResult) Rooms() []RoomChange { return r.rooms }
