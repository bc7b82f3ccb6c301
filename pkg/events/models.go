package events

import "time"

// Type names a lifecycle event. It doubles as the AMQP routing key.
type Type string

const (
	SwapRequested Type = "swap.requested"
	SwapAccepted  Type = "swap.accepted"
	SwapRejected  Type = "swap.rejected"
	SwapCancelled Type = "swap.cancelled"
	SwapExpired   Type = "swap.expired"

	TransactionCompleted Type = "transaction.completed"
	TransactionDisputed  Type = "transaction.disputed"
	TransactionCancelled Type = "transaction.cancelled"

	ReviewCreated Type = "review.created"
)

// Event represents a committed state change.
type Event struct {
	Type       Type        `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// SwapPayload is the payload of swap.* events.
type SwapPayload struct {
	RequestID     string `json:"request_id"`
	SenderID      string `json:"sender_id"`
	ReceiverID    string `json:"receiver_id"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// TransactionPayload is the payload of transaction.* events.
type TransactionPayload struct {
	TransactionID string `json:"transaction_id"`
	User1ID       string `json:"user1_id"`
	User2ID       string `json:"user2_id"`
	Status        string `json:"status"`
	ByUserID      string `json:"by_user_id,omitempty"`
}

// ReviewPayload is the payload of review.* events.
type ReviewPayload struct {
	ReviewID      string `json:"review_id"`
	ReviewerID    string `json:"reviewer_id"`
	RevieweeID    string `json:"reviewee_id"`
	TransactionID string `json:"transaction_id"`
	Rating        int    `json:"rating"`
}
