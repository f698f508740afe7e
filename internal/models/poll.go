package models

// Broadcast message types pushed over the live channel.
const (
	MessageTypePollUpdate        = "poll-update"
	MessageTypeLeaderboardUpdate = "leaderboard-update"
)

// CreatePollRequest is the POST /polls payload.
type CreatePollRequest struct {
	Title   string   `json:"title"`
	Options []string `json:"options"`
}

// CreatePollResponse is returned by POST /polls.
type CreatePollResponse struct {
	PollID string `json:"pollId"`
}

// VoteRequest is the POST /polls/:pollId/vote payload.
type VoteRequest struct {
	OptionID string `json:"optionId"`
}

// VoteEvent is the unit placed on the broker. It carries no unique event id,
// so at-least-once redelivery double-counts; that is the documented contract
// of the pipeline, not an accident.
type VoteEvent struct {
	PollID   string `json:"pollId"`
	OptionID string `json:"optionId"`
}

// OptionResult is one row of a poll snapshot, ordered by vote count.
type OptionResult struct {
	ID         string `json:"id"`
	OptionText string `json:"option_text"`
	VoteCount  int64  `json:"vote_count"`
}

// LeaderboardEntry is one row of the cross-poll leaderboard.
type LeaderboardEntry struct {
	Title      string `json:"title"`
	OptionText string `json:"option_text"`
	VoteCount  int64  `json:"vote_count"`
}

// PollUpdate is pushed to every subscriber after a vote is applied.
type PollUpdate struct {
	Type    string         `json:"type"`
	PollID  string         `json:"pollId"`
	Results []OptionResult `json:"results"`
}

// LeaderboardUpdate is pushed to every subscriber after a vote is applied.
// Leaderboard holds at most ten entries, vote count descending.
type LeaderboardUpdate struct {
	Type        string             `json:"type"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}
