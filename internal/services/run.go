package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/runclub/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserSummary is the public part of a user shown next to a run.
type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

func summarize(u *models.User) UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Image: u.Image}
}

// RunView is a run annotated for one viewer.
type RunView struct {
	models.Run
	Organizer           UserSummary   `json:"organizer"`
	Participants        []UserSummary `json:"participants"`
	CurrentParticipants int           `json:"currentParticipants"`
	IsUserParticipant   bool          `json:"isUserParticipant"`
	IsUserOrganizer     bool          `json:"isUserOrganizer"`
}

// UserRuns groups the runs a user organizes and the runs they joined.
// A run the user organized also appears among ParticipantRuns.
type UserRuns struct {
	OrganizedRuns   []RunView `json:"organizedRuns"`
	ParticipantRuns []RunView `json:"participantRuns"`
}

type RunService struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

func NewRunService(db *gorm.DB, loc *time.Location) *RunService {
	if loc == nil {
		loc = time.Local
	}
	return &RunService{db: db, loc: loc, now: time.Now}
}

// CreateRun validates fields and stores the run together with the
// organizer's participation.
func (s *RunService) CreateRun(ctx context.Context, actorID uint, f *RunFields) (*models.Run, error) {
	if actorID == 0 {
		return nil, ErrUnauthenticated
	}
	if errs := ValidateCreateRun(f, s.now(), s.loc); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs, Values: f}
	}

	startsAt, err := ParseRunStart(f.Date, f.Time, s.loc)
	if err != nil {
		return nil, &ValidationError{
			Errors: []FieldError{{Field: "date", Message: "Date and time are invalid"}},
			Values: f,
		}
	}
	limit, _ := f.ParticipantLimit()

	run := &models.Run{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(f.Title),
		Description:     strings.TrimSpace(f.Description),
		Location:        strings.TrimSpace(f.Location),
		Date:            startsAt.Format(models.RunDateLayout),
		Time:            startsAt.Format(models.RunTimeLayout),
		StartsAt:        startsAt.UTC(),
		Distance:        strings.TrimSpace(f.Distance),
		Pace:            strings.TrimSpace(f.Pace),
		MaxParticipants: limit,
		OrganizerID:     actorID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		return tx.Create(&models.RunParticipant{UserID: actorID, RunID: run.ID}).Error
	})
	if err != nil {
		return nil, persistErr("create run", err, f)
	}
	return run, nil
}

// JoinRun adds the actor to a run. Checks run in a single transaction,
// holding a row lock on the run where the dialect allows it.
func (s *RunService) JoinRun(ctx context.Context, actorID uint, runID string) error {
	if actorID == 0 {
		return ErrUnauthenticated
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return &ValidationError{Errors: []FieldError{{Field: "runId", Message: "Run ID is required"}}}
	}

	lock := models.SupportsRowLocking(s.db)
	now := s.now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if lock {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var run models.Run
		if err := q.Where("id = ?", runID).First(&run).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRunNotFound
			}
			return err
		}

		var joined int64
		if err := tx.Model(&models.RunParticipant{}).
			Where("user_id = ? AND run_id = ?", actorID, runID).
			Count(&joined).Error; err != nil {
			return err
		}
		if joined > 0 {
			return ErrAlreadyJoined
		}

		var count int64
		if err := tx.Model(&models.RunParticipant{}).
			Where("run_id = ?", runID).
			Count(&count).Error; err != nil {
			return err
		}
		if int(count) >= run.MaxParticipants {
			return ErrRunFull
		}

		if !run.StartsAt.After(now) {
			return ErrRunInPast
		}

		return tx.Create(&models.RunParticipant{UserID: actorID, RunID: runID}).Error
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		// Lost a race with a concurrent join by the same user.
		return ErrAlreadyJoined
	case errors.Is(err, ErrRunNotFound), errors.Is(err, ErrAlreadyJoined),
		errors.Is(err, ErrRunFull), errors.Is(err, ErrRunInPast):
		return err
	default:
		return persistErr("join run", err, nil)
	}
}

// LeaveRun removes the actor from a run. Leaving a run one never joined, or
// one that does not exist, succeeds. Organizers may leave their own runs.
func (s *RunService) LeaveRun(ctx context.Context, actorID uint, runID string) error {
	if actorID == 0 {
		return ErrUnauthenticated
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return &ValidationError{Errors: []FieldError{{Field: "runId", Message: "Run ID is required"}}}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("user_id = ? AND run_id = ?", actorID, runID).
			Delete(&models.RunParticipant{}).Error
	})
	if err != nil {
		return persistErr("leave run", err, nil)
	}
	return nil
}

// ListRuns returns every run in schedule order, annotated for actorID.
// actorID 0 means an anonymous viewer.
func (s *RunService) ListRuns(ctx context.Context, actorID uint) ([]RunView, error) {
	var runs []models.Run
	if err := s.db.WithContext(ctx).
		Preload("Organizer").
		Order(scheduleOrder("")).
		Find(&runs).Error; err != nil {
		return nil, persistErr("list runs", err, nil)
	}
	return s.annotate(ctx, runs, actorID)
}

// GetRun returns a single annotated run.
func (s *RunService) GetRun(ctx context.Context, actorID uint, runID string) (*RunView, error) {
	var run models.Run
	if err := s.db.WithContext(ctx).
		Preload("Organizer").
		Where("id = ?", strings.TrimSpace(runID)).
		First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, persistErr("get run", err, nil)
	}
	views, err := s.annotate(ctx, []models.Run{run}, actorID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListUserRuns returns the runs the actor organizes and the runs they joined.
func (s *RunService) ListUserRuns(ctx context.Context, actorID uint) (*UserRuns, error) {
	if actorID == 0 {
		return nil, ErrUnauthenticated
	}
	db := s.db.WithContext(ctx)

	var organized []models.Run
	if err := db.Preload("Organizer").
		Where("organizer_id = ?", actorID).
		Order(scheduleOrder("")).
		Find(&organized).Error; err != nil {
		return nil, persistErr("list organized runs", err, nil)
	}

	var joined []models.Run
	if err := db.Preload("Organizer").
		Joins("JOIN run_participants ON run_participants.run_id = runs.id").
		Where("run_participants.user_id = ?", actorID).
		Order(scheduleOrder("runs")).
		Find(&joined).Error; err != nil {
		return nil, persistErr("list joined runs", err, nil)
	}

	out := &UserRuns{}
	var err error
	if out.OrganizedRuns, err = s.annotate(ctx, organized, actorID); err != nil {
		return nil, err
	}
	if out.ParticipantRuns, err = s.annotate(ctx, joined, actorID); err != nil {
		return nil, err
	}
	return out, nil
}

// scheduleOrder sorts by date then time. Both names are keywords in some
// dialects, so they go through clause quoting.
func scheduleOrder(table string) clause.OrderBy {
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Table: table, Name: "date"}},
		{Column: clause.Column{Table: table, Name: "time"}},
		{Column: clause.Column{Table: table, Name: "created_at"}},
	}}
}

func (s *RunService) annotate(ctx context.Context, runs []models.Run, actorID uint) ([]RunView, error) {
	views := make([]RunView, 0, len(runs))
	if len(runs) == 0 {
		return views, nil
	}

	ids := make([]string, len(runs))
	for i := range runs {
		ids[i] = runs[i].ID
	}

	var parts []models.RunParticipant
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("run_id IN ?", ids).
		Order("created_at ASC, id ASC").
		Find(&parts).Error; err != nil {
		return nil, persistErr("load participants", err, nil)
	}

	byRun := make(map[string][]models.RunParticipant, len(runs))
	for _, p := range parts {
		byRun[p.RunID] = append(byRun[p.RunID], p)
	}

	for _, run := range runs {
		rp := byRun[run.ID]
		v := RunView{
			Run:                 run,
			Organizer:           summarize(run.Organizer),
			Participants:        make([]UserSummary, 0, len(rp)),
			CurrentParticipants: len(rp),
			IsUserOrganizer:     actorID != 0 && run.OrganizerID == actorID,
		}
		if v.Organizer.ID == 0 {
			v.Organizer.ID = run.OrganizerID
		}
		for _, p := range rp {
			if actorID != 0 && p.UserID == actorID {
				v.IsUserParticipant = true
			}
			su := summarize(p.User)
			if su.ID == 0 {
				su.ID = p.UserID
			}
			v.Participants = append(v.Participants, su)
		}
		views = append(views, v)
	}
	return views, nil
}
