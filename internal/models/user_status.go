package models

// UserStatusLevel names a status tier.
type UserStatusLevel string

const (
	LevelBeginner     UserStatusLevel = "beginner"
	LevelIntermediate UserStatusLevel = "intermediate"
	LevelAdvanced     UserStatusLevel = "advanced"
	LevelExpert       UserStatusLevel = "expert"
	LevelElite        UserStatusLevel = "elite"
)

// UserStatus is a presentation tier derived from a member's run count.
type UserStatus struct {
	Level       UserStatusLevel `json:"level"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Color       string          `json:"color"`
	MinRuns     int             `json:"minRuns"`
}

// UserStatuses is ordered by ascending MinRuns.
var UserStatuses = []UserStatus{
	{Level: LevelBeginner, Title: "Beginner", Description: "Your running adventure starts here", Color: "bg-gray-500", MinRuns: 0},
	{Level: LevelIntermediate, Title: "Regular Runner", Description: "You are finding your rhythm!", Color: "bg-blue-500", MinRuns: 10},
	{Level: LevelAdvanced, Title: "Seasoned Runner", Description: "You have mastered your craft", Color: "bg-green-500", MinRuns: 50},
	{Level: LevelExpert, Title: "Expert Runner", Description: "Impressive!", Color: "bg-purple-500", MinRuns: 100},
	{Level: LevelElite, Title: "Elite Runner", Description: "You are a legend!", Color: "bg-yellow-500", MinRuns: 200},
}

// GetUserStatus returns the highest tier whose threshold runCount reaches.
// Negative counts fall back to the lowest tier.
func GetUserStatus(runCount int) UserStatus {
	for i := len(UserStatuses) - 1; i >= 0; i-- {
		if runCount >= UserStatuses[i].MinRuns {
			return UserStatuses[i]
		}
	}
	return UserStatuses[0]
}

// NextUserStatus returns the tier after the one runCount reaches, if any.
func NextUserStatus(runCount int) (UserStatus, bool) {
	current := GetUserStatus(runCount)
	for _, s := range UserStatuses {
		if s.MinRuns > current.MinRuns {
			return s, true
		}
	}
	return UserStatus{}, false
}
