package handlers

// AuthContext carries the authenticated identity of a socket event into
// handler functions. It intentionally excludes transport-specific
// types; the acting identity always comes from the verified token,
// never from inbound payload fields.
type AuthContext struct {
	email    string
	gamertag string
	socketID string
}

// NewAuthContext constructs an AuthContext for a single socket event.
func NewAuthContext(email, gamertag, socketID string) AuthContext {
	return AuthContext{
		email:    email,
		gamertag: gamertag,
		socketID: socketID,
	}
}

// Email returns the authenticated durable identity.
func (a AuthContext) Email() string {
	return a.email
}

// Gamertag returns the authenticated display name.
func (a AuthContext) Gamertag() string {
	return a.gamertag
}

// SocketID returns the caller socket id.
func (a AuthContext) SocketID() string {
	return a.socketID
}
