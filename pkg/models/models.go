package models

import (
	"time"
)

// Visibility controls whether a profile shows up in public listings.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// User is a member profile together with its reputation and swap counters.
type User struct {
	UserId            string     `json:"user_id" dynamodbav:"user_id"`
	Email             string     `json:"email" dynamodbav:"email"`
	Name              string     `json:"name" dynamodbav:"name"`
	Location          string     `json:"location" dynamodbav:"location"`
	ProfilePhoto      string     `json:"profile_photo" dynamodbav:"profile_photo"`
	Availability      string     `json:"availability" dynamodbav:"availability"`
	ProfileVisibility Visibility `json:"profile_visibility" dynamodbav:"profile_visibility"`
	Role              string     `json:"role" dynamodbav:"role"`
	IsBanned          bool       `json:"is_banned" dynamodbav:"is_banned"`
	BanReason         string     `json:"ban_reason,omitempty" dynamodbav:"ban_reason"`
	BannedUntil       *time.Time `json:"banned_until,omitempty" dynamodbav:"banned_until,omitempty"`
	RatingAvg         float64    `json:"rating_avg" dynamodbav:"rating_avg"`
	RatingCount       int        `json:"rating_count" dynamodbav:"rating_count"`
	RatingComputedAt  int64      `json:"-" dynamodbav:"rating_computed_at,omitempty"`
	TotalSwaps        int64      `json:"total_swaps" dynamodbav:"total_swaps"`
	SuccessfulSwaps   int64      `json:"successful_swaps" dynamodbav:"successful_swaps"`
	PendingRequests   int64      `json:"pending_requests" dynamodbav:"pending_requests"`
	CreatedAt         time.Time  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" dynamodbav:"updated_at"`
}

// BanActive reports whether the user is banned at the given instant. A ban
// without an expiry never lapses.
func (u *User) BanActive(now time.Time) bool {
	if !u.IsBanned {
		return false
	}
	return u.BannedUntil == nil || u.BannedUntil.After(now)
}

// ProfileUpdate carries the user-editable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	Name              *string     `json:"name,omitempty"`
	Location          *string     `json:"location,omitempty"`
	ProfilePhoto      *string     `json:"profile_photo,omitempty"`
	Availability      *string     `json:"availability,omitempty"`
	ProfileVisibility *Visibility `json:"profile_visibility,omitempty"`
}

// Skill is a catalogue entry addressed by its normalized name.
type Skill struct {
	SkillId       string    `json:"skill_id" dynamodbav:"skill_id"`
	Name          string    `json:"name" dynamodbav:"name"`
	Description   string    `json:"description" dynamodbav:"description"`
	Category      string    `json:"category" dynamodbav:"category"`
	UsersOffering int64     `json:"users_offering" dynamodbav:"users_offering"`
	UsersWanting  int64     `json:"users_wanting" dynamodbav:"users_wanting"`
	TotalSwaps    int64     `json:"total_swaps" dynamodbav:"total_swaps"`
	IsApproved    bool      `json:"is_approved" dynamodbav:"is_approved"`
	IsFlagged     bool      `json:"is_flagged" dynamodbav:"is_flagged"`
	FlagCount     int64     `json:"flag_count" dynamodbav:"flag_count"`
	CreatedBy     string    `json:"created_by" dynamodbav:"created_by"`
	CreatedAt     time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// Direction says whether a user offers or wants a skill.
type Direction string

const (
	Offered Direction = "offered"
	Wanted  Direction = "wanted"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Offered || d == Wanted
}

// CounterField is the skill counter a direction feeds.
func (d Direction) CounterField() string {
	if d == Offered {
		return FieldUsersOffering
	}
	return FieldUsersWanting
}

// Proficiency levels, lowest first.
const (
	Beginner     = "beginner"
	Intermediate = "intermediate"
	Advanced     = "advanced"
	Expert       = "expert"
)

// ValidProficiency reports whether level is one of the known proficiency levels.
func ValidProficiency(level string) bool {
	switch level {
	case Beginner, Intermediate, Advanced, Expert:
		return true
	}
	return false
}

// UserSkill links a user to a skill in one direction.
type UserSkill struct {
	UserSkillId      string    `json:"user_skill_id" dynamodbav:"user_skill_id"`
	UserId           string    `json:"user_id" dynamodbav:"user_id"`
	SkillId          string    `json:"skill_id" dynamodbav:"skill_id"`
	SkillName        string    `json:"skill_name" dynamodbav:"skill_name"`
	Type             Direction `json:"type" dynamodbav:"type"`
	ProficiencyLevel string    `json:"proficiency_level" dynamodbav:"proficiency_level"`
	Description      string    `json:"description" dynamodbav:"description"`
	IsActive         bool      `json:"is_active" dynamodbav:"is_active"`
	AvailableForSwap bool      `json:"available_for_swap" dynamodbav:"available_for_swap"`
	CreatedAt        time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// RequestStatus defines the possible states of a swap request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestRejected  RequestStatus = "rejected"
	RequestCancelled RequestStatus = "cancelled"
	RequestExpired   RequestStatus = "expired"
)

// Terminal reports whether no transition leaves s.
func (s RequestStatus) Terminal() bool {
	switch s {
	case RequestAccepted, RequestRejected, RequestCancelled, RequestExpired:
		return true
	}
	return false
}

// SwapRequest is a proposal to trade one skill for another.
type SwapRequest struct {
	RequestId          string        `json:"request_id" dynamodbav:"request_id"`
	SenderId           string        `json:"sender_id" dynamodbav:"sender_id"`
	ReceiverId         string        `json:"receiver_id" dynamodbav:"receiver_id"`
	OfferedSkillName   string        `json:"offered_skill_name" dynamodbav:"offered_skill_name"`
	RequestedSkillName string        `json:"requested_skill_name" dynamodbav:"requested_skill_name"`
	Message            string        `json:"message" dynamodbav:"message"`
	Status             RequestStatus `json:"status" dynamodbav:"status"`
	ResponseMessage    string        `json:"response_message" dynamodbav:"response_message"`
	TransactionId      string        `json:"transaction_id,omitempty" dynamodbav:"transaction_id,omitempty"`
	CreatedAt          time.Time     `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" dynamodbav:"updated_at"`
	RespondedAt        *time.Time    `json:"responded_at,omitempty" dynamodbav:"responded_at,omitempty"`
	ExpiresAt          time.Time     `json:"expires_at" dynamodbav:"expires_at,unixtime"`
}

// Overdue reports whether the request is still pending past its expiry.
func (r *SwapRequest) Overdue(now time.Time) bool {
	return r.Status == RequestPending && !now.Before(r.ExpiresAt)
}

// RequestRole tags a request with the caller's side of it.
type RequestRole string

const (
	RoleSent     RequestRole = "sent"
	RoleReceived RequestRole = "received"
)

// SwapRequestView is a request as seen by one of its parties.
type SwapRequestView struct {
	SwapRequest
	Type RequestRole `json:"type"`
}

// TransactionStatus defines the possible states of a swap transaction.
type TransactionStatus string

const (
	TransactionInProgress TransactionStatus = "in_progress"
	TransactionCompleted  TransactionStatus = "completed"
	TransactionCancelled  TransactionStatus = "cancelled"
	TransactionDisputed   TransactionStatus = "disputed"
)

// Participant identifies a slot on a transaction.
type Participant string

const (
	User1 Participant = "user1"
	User2 Participant = "user2"
)

// ConfirmedField is the attribute holding the slot's confirmation flag.
func (p Participant) ConfirmedField() string {
	return string(p) + "_confirmed"
}

// Other returns the opposite slot.
func (p Participant) Other() Participant {
	if p == User1 {
		return User2
	}
	return User1
}

// IdField is the attribute holding the slot's user id.
func (p Participant) IdField() string {
	return string(p) + "_id"
}

// Transaction tracks the execution of an accepted swap request.
type Transaction struct {
	TransactionId        string            `json:"transaction_id" dynamodbav:"transaction_id"`
	BarterRequestId      string            `json:"barter_request_id" dynamodbav:"barter_request_id"`
	User1Id              string            `json:"user1_id" dynamodbav:"user1_id"`
	User2Id              string            `json:"user2_id" dynamodbav:"user2_id"`
	User1Skill           string            `json:"user1_skill" dynamodbav:"user1_skill"`
	User2Skill           string            `json:"user2_skill" dynamodbav:"user2_skill"`
	Status               TransactionStatus `json:"status" dynamodbav:"status"`
	StartDate            time.Time         `json:"start_date" dynamodbav:"start_date"`
	ExpectedEndDate      time.Time         `json:"expected_end_date" dynamodbav:"expected_end_date"`
	ActualEndDate        *time.Time        `json:"actual_end_date,omitempty" dynamodbav:"actual_end_date,omitempty"`
	User1Confirmed       bool              `json:"user1_confirmed" dynamodbav:"user1_confirmed"`
	User2Confirmed       bool              `json:"user2_confirmed" dynamodbav:"user2_confirmed"`
	CompletionPercentage int               `json:"completion_percentage" dynamodbav:"completion_percentage"`
	IsDisputed           bool              `json:"is_disputed" dynamodbav:"is_disputed"`
	DisputeReason        string            `json:"dispute_reason" dynamodbav:"dispute_reason"`
	CreatedAt            time.Time         `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at" dynamodbav:"updated_at"`
}

// ParticipantOf returns the slot userID occupies, if any.
func (t *Transaction) ParticipantOf(userID string) (Participant, bool) {
	switch userID {
	case t.User1Id:
		return User1, true
	case t.User2Id:
		return User2, true
	}
	return "", false
}

// Confirmed reports the confirmation flag of a slot.
func (t *Transaction) Confirmed(p Participant) bool {
	if p == User1 {
		return t.User1Confirmed
	}
	return t.User2Confirmed
}

// TransactionView is a transaction tagged with the caller's slot.
type TransactionView struct {
	Transaction
	UserRole Participant `json:"user_role"`
}

// Review is one participant's rating of the other after a swap.
type Review struct {
	ReviewId      string    `json:"review_id" dynamodbav:"review_id"`
	ReviewerId    string    `json:"reviewer_id" dynamodbav:"reviewer_id"`
	RevieweeId    string    `json:"reviewee_id" dynamodbav:"reviewee_id"`
	TransactionId string    `json:"transaction_id" dynamodbav:"transaction_id"`
	Rating        int       `json:"rating" dynamodbav:"rating"`
	Title         string    `json:"title" dynamodbav:"title"`
	Comment       string    `json:"comment" dynamodbav:"comment"`
	IsPublic      bool      `json:"is_public" dynamodbav:"is_public"`
	IsVerified    bool      `json:"is_verified" dynamodbav:"is_verified"`
	HelpfulVotes  int64     `json:"helpful_votes" dynamodbav:"helpful_votes"`
	HelpfulVoters []string  `json:"-" dynamodbav:"helpful_voters,stringset,omitempty"`
	IsFlagged     bool      `json:"is_flagged" dynamodbav:"is_flagged"`
	IsApproved    bool      `json:"is_approved" dynamodbav:"is_approved"`
	CreatedAt     time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// SystemMessage is a platform-wide announcement.
type SystemMessage struct {
	MessageId string    `json:"message_id" dynamodbav:"message_id"`
	AdminId   string    `json:"admin_id" dynamodbav:"admin_id"`
	Title     string    `json:"title" dynamodbav:"title"`
	Message   string    `json:"message" dynamodbav:"message"`
	Type      string    `json:"type" dynamodbav:"type"`
	Priority  string    `json:"priority" dynamodbav:"priority"`
	IsActive  bool      `json:"is_active" dynamodbav:"is_active"`
	ShowUntil time.Time `json:"show_until" dynamodbav:"show_until,unixtime"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}
