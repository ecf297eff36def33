package client

import "time"

type User struct {
	ID        uint       `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	AuthType  string     `json:"authType"`
	Image     string     `json:"image,omitempty"`
	RunCount  int        `json:"runCount"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Session struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	IP        string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type SessionInfo struct {
	User    *User    `json:"user"`
	Session *Session `json:"session"`
}

type SignInResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
	Session   *Session  `json:"session"`
}

type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

// Run is a run as seen by the signed-in user.
type Run struct {
	ID                  string        `json:"id"`
	Title               string        `json:"title"`
	Description         string        `json:"description"`
	Location            string        `json:"location"`
	Date                string        `json:"date"`
	Time                string        `json:"time"`
	StartsAt            time.Time     `json:"startsAt"`
	Distance            string        `json:"distance"`
	Pace                string        `json:"pace"`
	MaxParticipants     int           `json:"maxParticipants"`
	OrganizerID         uint          `json:"organizerId"`
	Organizer           UserSummary   `json:"organizer"`
	Participants        []UserSummary `json:"participants"`
	CurrentParticipants int           `json:"currentParticipants"`
	IsUserParticipant   bool          `json:"isUserParticipant"`
	IsUserOrganizer     bool          `json:"isUserOrganizer"`
}

// Full reports whether no seat is left.
func (r *Run) Full() bool {
	return r.CurrentParticipants >= r.MaxParticipants
}

type UserRuns struct {
	OrganizedRuns   []Run `json:"organizedRuns"`
	ParticipantRuns []Run `json:"participantRuns"`
}

// RunInput is the body of a create-run request. MaxParticipants 0 lets the
// server apply its default.
type RunInput struct {
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	Location        string `json:"location"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Distance        string `json:"distance,omitempty"`
	Pace            string `json:"pace,omitempty"`
	MaxParticipants int    `json:"maxParticipants,omitempty"`
}
