package domain

// Action is the discrete recommendation attached to each ad or ad-set row.
type Action string

const (
	ActionPause           Action = "Pause"
	ActionScale           Action = "Scale"
	ActionLightScale      Action = "Light scale"
	ActionFeedMoreData    Action = "Feed more data"
	ActionOptimize        Action = "Optimize"
	ActionScaleDown       Action = "Scale down"
	ActionTestNew         Action = "Test new"
	ActionConsiderPausing Action = "Consider pausing"
	ActionReview          Action = "Review action"
)

var actionRationales = map[Action]string{
	ActionPause:           "The ad is spending budget without delivering results. Pause it and move budget to stronger ads.",
	ActionScale:           "The ad meets your goals and performs strongly. Increase budget carefully and watch the results.",
	ActionLightScale:      "The ad performs well but misses one of your scenario goals. Scale in small steps only.",
	ActionFeedMoreData:    "The ad shows potential but has too little data. Let it run longer or increase budget slightly.",
	ActionOptimize:        "The ad performs okay but has clear room for improvement. Adjust audiences, message or placements.",
	ActionScaleDown:       "The ad spends a lot for weak results. Reduce budget and reallocate to better performers.",
	ActionTestNew:         "The ad delivers weakly. Test a new variant with a different message, image or format.",
	ActionConsiderPausing: "The ad sits below average. Monitor it and consider pausing if results do not improve.",
	ActionReview:          "The ad could not be classified. Review its data manually.",
}

// Rationale returns the static display text for an action.
func (a Action) Rationale() string {
	if r, ok := actionRationales[a]; ok {
		return r
	}
	return actionRationales[ActionReview]
}
