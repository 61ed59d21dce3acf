package config

// NotifyConfig toggles the outbound announcements. Each maps to one
// scheduled or event-driven message; everything defaults to on so a
// fresh deployment behaves like the full bot.
type NotifyConfig struct {
	// WeeklyKickoff - Monday morning challenge announcement.
	WeeklyKickoff bool

	// NightlyReminder - evening nudge for members short of their goals.
	NightlyReminder bool

	// Verdict - Sunday evening evaluation results.
	Verdict bool

	// PuzzlePodium - weekly puzzle podium announcement.
	PuzzlePodium bool

	// PenaltyRoleSync - assign and clear the penalty role in the guild.
	PenaltyRoleSync bool

	// StreakCallouts - celebrate clean-week streak milestones.
	StreakCallouts bool
}

func loadNotifyConfig() NotifyConfig {
	return NotifyConfig{
		WeeklyKickoff:   getEnvBool("NOTIFY_WEEKLY_KICKOFF", true),
		NightlyReminder: getEnvBool("NOTIFY_NIGHTLY_REMINDER", true),
		Verdict:         getEnvBool("NOTIFY_VERDICT", true),
		PuzzlePodium:    getEnvBool("NOTIFY_PUZZLE_PODIUM", true),
		PenaltyRoleSync: getEnvBool("NOTIFY_PENALTY_ROLE_SYNC", true),
		StreakCallouts:  getEnvBool("NOTIFY_STREAK_CALLOUTS", true),
	}
}
