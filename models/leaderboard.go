package models

// LeaderboardEntry is one row of the monthly top-traders board, ranked by
// profit percentage over the challenge's starting balance
type LeaderboardEntry struct {
	Rank         int
	TraderName   string
	UserID       int64
	ChallengeID  int64
	StartBalance float64
	Equity       float64
	ProfitPct    float64
	Status       ChallengeStatus
}
