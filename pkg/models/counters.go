package models

// Entity names a collection holding counters.
type Entity string

const (
	EntityUser   Entity = "user"
	EntitySkill  Entity = "skill"
	EntityReview Entity = "review"
)

// Counter fields maintained by the engine.
const (
	FieldPendingRequests = "pending_requests"
	FieldTotalSwaps      = "total_swaps"
	FieldSuccessfulSwaps = "successful_swaps"
	FieldUsersOffering   = "users_offering"
	FieldUsersWanting    = "users_wanting"
	FieldFlagCount       = "flag_count"
	FieldHelpfulVotes    = "helpful_votes"
)

// Counter addresses one numeric field on one record.
type Counter struct {
	Entity Entity
	ID     string
	Field  string
}
