package domain

// AdRewardSnapshot is the render-ready view of the ad-reward cooldown
// for a user. RemainingSeconds counts down on a one-second cadence and
// Available flips back to true when it reaches zero.
type AdRewardSnapshot struct {
	Available        bool `json:"available"`
	RemainingSeconds int  `json:"remaining_seconds"`
	RewardTokens     int  `json:"reward_tokens"`
}
