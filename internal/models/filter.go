package models

// ActivityPredicate selects engineers by login recency
type ActivityPredicate string

const (
	ActivityAll      ActivityPredicate = "all"
	ActivityActive   ActivityPredicate = "active"
	ActivityInactive ActivityPredicate = "inactive"
)

// FilterState is the current value of the roster search controls
type FilterState struct {
	SearchText string
	Activity   ActivityPredicate
}
