package types

// Sender is the transport surface the dispatcher emits through. Send must
// never block: implementations enqueue on a bounded per-connection buffer and
// report overflow by returning false, at which point the connection is to be
// closed as unresponsive.
type Sender interface {
	Send(id ConnectionIDType, event Event) bool
	// CloseConnection asks the transport to close the connection. The
	// resulting disconnect is processed like any other.
	CloseConnection(id ConnectionIDType)
}

// Dispatcher is the inbound surface the transport drives. Events from one
// connection are delivered sequentially; HandleEvent must complete (state
// mutation plus all enqueues) before the caller reads the next frame.
type Dispatcher interface {
	Connect(id ConnectionIDType, identity IdentityType)
	HandleEvent(id ConnectionIDType, event Event)
	Disconnect(id ConnectionIDType)
}
