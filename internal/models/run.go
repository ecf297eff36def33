package models

import "time"

const (
	RunDateLayout = "2006-01-02"
	RunTimeLayout = "15:04"

	MinParticipants     = 1
	MaxParticipants     = 50
	DefaultParticipants = 10
)

// Run is a scheduled group run. Date and Time are kept as entered for
// display; StartsAt is the parsed instant every comparison uses.
type Run struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	Title           string     `gorm:"size:200;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	Location        string     `gorm:"size:300;not null" json:"location"`
	Date            string     `gorm:"size:10;not null;index:idx_runs_schedule,priority:1" json:"date"`
	Time            string     `gorm:"size:5;not null;index:idx_runs_schedule,priority:2" json:"time"`
	StartsAt        time.Time  `gorm:"not null;index" json:"startsAt"`
	Distance        string     `gorm:"size:50" json:"distance"`
	Pace            string     `gorm:"size:50" json:"pace"`
	MaxParticipants int        `gorm:"not null;check:chk_runs_max_participants,max_participants >= 1 AND max_participants <= 50" json:"maxParticipants"`
	OrganizerID     uint       `gorm:"not null;index" json:"organizerId"`
	Organizer       *User      `gorm:"foreignKey:OrganizerID;constraint:OnDelete:RESTRICT" json:"-"`
	TalliedAt       *time.Time `gorm:"index" json:"-"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (Run) TableName() string { return "runs" }

// RunParticipant records that a user joined a run. At most one row exists
// per (user, run).
type RunParticipant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_run_participant_user_run,priority:1" json:"userId"`
	RunID     string    `gorm:"size:36;not null;uniqueIndex:idx_run_participant_user_run,priority:2;index" json:"runId"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Run       *Run      `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

func (RunParticipant) TableName() string { return "run_participants" }
