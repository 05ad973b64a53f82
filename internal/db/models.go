package db

import (
	"time"
)

// Gender values stored on profiles.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Decision directions.
const (
	DirectionAccept = "accept"
	DirectionReject = "reject"
)

// Payment statuses.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// Account is the identity behind a session. Created on first magic-link request.
type Account struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Email       string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// MagicLink is a single-use sign-in token. Only a bcrypt hash of the secret is kept.
type MagicLink struct {
	ID         string    `gorm:"primaryKey;size:36"`
	AccountID  string    `gorm:"size:36;not null;index"`
	SecretHash string    `gorm:"size:255;not null"`
	RedirectTo string    `gorm:"size:512"`
	ExpiresAt  time.Time `gorm:"not null"`
	UsedAt     *time.Time
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Profile is created once at onboarding; gender and country have no edit path.
//
// Indexes:
//   - idx_gender_created(gender, created_at) serves the discovery page query.
type Profile struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Age       int       `gorm:"not null" json:"age"`
	Gender    string    `gorm:"size:16;not null;index:idx_gender_created,priority:1" json:"gender"`
	Country   string    `gorm:"size:64;not null" json:"country"`
	Bio       string    `gorm:"size:512" json:"bio"`
	PhotoURL  string    `gorm:"size:1024" json:"photo_url"`
	IsPremium bool      `gorm:"not null;default:false" json:"is_premium"`
	IsBot     bool      `gorm:"not null;default:false" json:"is_bot"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_gender_created,priority:2" json:"created_at"`
}

// Decision represents an actor's accept/reject decision on a recipient.
//
// Composite PK: (ActorID, RecipientID)
//   - One row per directed pair; a repeated decision overwrites Direction.
//
// Indexes:
//   - idx_recipient_direction(recipient_id, direction) serves like counts.
type Decision struct {
	ActorID     string    `gorm:"primaryKey;size:36"`
	RecipientID string    `gorm:"primaryKey;size:36;index:idx_recipient_direction,priority:1"`
	Direction   string    `gorm:"size:8;not null;index:idx_recipient_direction,priority:2"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Match records a declared mutual match. The pair is stored ordered
// (AccountLow < AccountHigh) so the PK admits one row per unordered pair.
type Match struct {
	AccountLow  string    `gorm:"primaryKey;size:36"`
	AccountHigh string    `gorm:"primaryKey;size:36;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// Message is an append-only chat line between two accounts.
type Message struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID   string    `gorm:"size:36;not null;index:idx_pair_created,priority:1" json:"sender_id"`
	ReceiverID string    `gorm:"size:36;not null;index:idx_pair_created,priority:2" json:"receiver_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_pair_created,priority:3" json:"created_at"`
}

// Payment tracks a premium checkout order through to verified payment.
type Payment struct {
	OrderID   string    `gorm:"primaryKey;size:64"`
	AccountID string    `gorm:"size:36;not null;index"`
	Amount    int64     `gorm:"not null"`
	Currency  string    `gorm:"size:8;not null"`
	Status    string    `gorm:"size:16;not null"`
	PaymentID string    `gorm:"size:64"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	PaidAt    *time.Time
}

// All lists every model for migrations.
func All() []any {
	return []any{&Account{}, &MagicLink{}, &Profile{}, &Decision{}, &Match{}, &Message{}, &Payment{}}
}
