package models

// Standing is derived from completed pairings and never edited by hand.
type Standing struct {
	Rank           int     `json:"rank"`
	TeamID         int     `json:"team_id"`
	TeamName       string  `json:"team_name"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	Rounds         int     `json:"rounds"`
	TotalSpeaks    float64 `json:"total_speaks"`
	AverageSpeaks  float64 `json:"average_speaks"`
	OpponentWinPct float64 `json:"opponent_win_pct"`
	AdjustedSpeaks float64 `json:"adjusted_speaks,omitempty"`
}
