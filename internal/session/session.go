package session

// Flash is a one-shot message shown to interactive clients on their next page view.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Data is the server-side payload stored under a session id.
type Data struct {
	UserID   *int64  `json:"user_id,omitempty"`
	Username string  `json:"username,omitempty"`
	Flashes  []Flash `json:"flashes,omitempty"`
}

// Session is the request-scoped view of a client's session. Mutations are recorded and
// persisted by Manager.Commit once the handler chain finishes.
type Session struct {
	id   string
	data Data

	dirty      bool
	regenerate bool
	destroyed  bool
}

// New returns an empty session that has never been persisted.
func New() *Session {
	return newSession("", Data{})
}

func newSession(id string, data Data) *Session {
	return &Session{id: id, data: data}
}

// ID returns the session identifier, empty for a session that was never persisted.
func (s *Session) ID() string {
	return s.id
}

// UserID returns the authenticated user's id, if any.
func (s *Session) UserID() (int64, bool) {
	if s == nil || s.data.UserID == nil {
		return 0, false
	}
	return *s.data.UserID, true
}

// Username returns the username recorded at login.
func (s *Session) Username() string {
	if s == nil {
		return ""
	}
	return s.data.Username
}

// Login binds the session to a user and rotates the session id on commit.
func (s *Session) Login(userID int64, username string) {
	id := userID
	s.data.UserID = &id
	s.data.Username = username
	s.dirty = true
	s.regenerate = true
	s.destroyed = false
}

// Clear drops every value and removes the session from the store on commit.
func (s *Session) Clear() {
	s.data = Data{}
	s.destroyed = true
	s.dirty = false
}

// AddFlash queues a message for the next interactive response.
func (s *Session) AddFlash(category, message string) {
	s.data.Flashes = append(s.data.Flashes, Flash{Category: category, Message: message})
	s.dirty = true
	if s.destroyed {
		// A flash after logout starts a fresh anonymous session.
		s.destroyed = false
		s.regenerate = true
	}
}

// PopFlashes returns queued flashes and removes them.
func (s *Session) PopFlashes() []Flash {
	if len(s.data.Flashes) == 0 {
		return nil
	}
	flashes := s.data.Flashes
	s.data.Flashes = nil
	s.dirty = true
	return flashes
}
