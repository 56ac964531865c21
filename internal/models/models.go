package models

import "time"

// EligibilityStreakDays is the backend's payment threshold, consumed verbatim
const EligibilityStreakDays = 10

// DefaultPaymentAmount is what the admin console offers for an eligible user
const DefaultPaymentAmount = 100

// User represents the signed-in user as returned by the backend
type User struct {
	ID            string       `json:"_id"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	CurrentStreak int          `json:"currentStreak"`
	LongestStreak int          `json:"longestStreak"`
	TotalVideos   int          `json:"totalVideos"`
	Rewards       []Reward     `json:"rewards,omitempty"`
	PaymentInfo   *PaymentInfo `json:"paymentInfo,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// Admin represents a console operator
type Admin struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Reward is a badge earned for streak milestones
type Reward struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	Points      int       `json:"points"`
	Description string    `json:"description,omitempty"`
	EarnedAt    time.Time `json:"earnedAt"`
}

// PaymentMethod is the user's preferred payout channel
type PaymentMethod string

const (
	MethodUPI    PaymentMethod = "upi"
	MethodBank   PaymentMethod = "bank"
	MethodPayPal PaymentMethod = "paypal"
	MethodWallet PaymentMethod = "wallet"
)

// PaymentInfo is the payout sub-document of a user
type PaymentInfo struct {
	PreferredMethod PaymentMethod `json:"preferredMethod"`
	BankAccount     *BankAccount  `json:"bankAccount,omitempty"`
	UPI             *UPI          `json:"upi,omitempty"`
	PayPal          *PayPal       `json:"paypal,omitempty"`
	Wallet          *Wallet       `json:"wallet,omitempty"`
}

// BankAccount holds bank transfer details
type BankAccount struct {
	AccountHolderName string `json:"accountHolderName"`
	AccountNumber     string `json:"accountNumber"`
	BankName          string `json:"bankName"`
	IFSCCode          string `json:"ifscCode"`
	BranchName        string `json:"branchName"`
}

// UPI holds UPI payout details
type UPI struct {
	UPIID   string `json:"upiId"`
	UPIName string `json:"upiName"`
}

// PayPal holds PayPal payout details
type PayPal struct {
	Email string `json:"paypalEmail"`
	Name  string `json:"paypalName"`
}

// Wallet holds mobile wallet payout details
type Wallet struct {
	Type   string `json:"walletType"`
	Number string `json:"walletNumber"`
	Name   string `json:"walletName"`
}

// VideoStatus is the server-assigned validation state
type VideoStatus string

const (
	VideoPending VideoStatus = "pending"
	VideoValid   VideoStatus = "valid"
	VideoInvalid VideoStatus = "invalid"
	VideoFlagged VideoStatus = "flagged"
)

// Video is an uploaded practice recording
type Video struct {
	ID               string      `json:"_id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Topic            *TopicRef   `json:"topic,omitempty"`
	User             *UserRef    `json:"user,omitempty"`
	ValidationStatus VideoStatus `json:"validationStatus"`
	Duration         float64     `json:"duration"`
	UploadDate       time.Time   `json:"uploadDate"`
	IsPublic         bool        `json:"isPublic"`
	URL              string      `json:"videoUrl,omitempty"`
}

// VideoUpdate carries editable video fields; nil fields are left as they
// are on the server
type VideoUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"isPublic,omitempty"`
}

// Empty reports whether the update changes nothing
func (u VideoUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.IsPublic == nil
}

// TopicRef is the embedded topic reference on a video
type TopicRef struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// UserRef is the embedded user reference on admin listings
type UserRef struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Difficulties are the topic difficulty levels
var Difficulties = []string{"easy", "medium", "hard"}

// Topic is a speaking prompt
type Topic struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Difficulty  string   `json:"difficulty"`
	Description string   `json:"description"`
	Tips        []string `json:"tips,omitempty"`
	UsageCount  int      `json:"usageCount"`
}

// TopicFilter narrows a topic listing
type TopicFilter struct {
	Category   string
	Difficulty string
	Limit      int
}

// PaymentStatus is an admin-driven payout state
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Payment is a payout record
type Payment struct {
	ID            string        `json:"_id"`
	User          *UserRef      `json:"user,omitempty"`
	Amount        float64       `json:"amount"`
	StreakDays    int           `json:"streakDays"`
	Status        PaymentStatus `json:"status"`
	PaymentMethod string        `json:"paymentMethod,omitempty"`
	AdminNotes    string        `json:"adminNotes,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	DueDate       *time.Time    `json:"dueDate,omitempty"`
}

// PaymentStats summarises a user's payouts
type PaymentStats struct {
	TotalPayments     int     `json:"totalPayments"`
	CompletedPayments int     `json:"completedPayments"`
	PendingPayments   int     `json:"pendingPayments"`
	TotalAmount       float64 `json:"totalAmount"`
}

// CreatePaymentRequest is sent by admins for an eligible user
type CreatePaymentRequest struct {
	UserID        string  `json:"userId"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
	AdminNotes    string  `json:"adminNotes"`
}

// Script is a downloadable practice script
type Script struct {
	ID            string `json:"_id"`
	Title         string `json:"title"`
	Category      string `json:"category"`
	Difficulty    string `json:"difficulty"`
	Content       string `json:"content"`
	DownloadCount int    `json:"downloadCount"`
}

// ScriptCategory is a named script bucket
type ScriptCategory struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Streak is the dashboard streak block
type Streak struct {
	Current  int  `json:"current"`
	Longest  int  `json:"longest"`
	IsActive bool `json:"isActive"`
	NextGoal int  `json:"nextGoal"`
}

// Dashboard is the user home aggregate
type Dashboard struct {
	User         User           `json:"user"`
	Streak       Streak         `json:"streak"`
	RecentVideos []Video        `json:"recentVideos"`
	Statistics   DashboardStats `json:"statistics"`
}

// DashboardStats are the dashboard tiles. Durations are in seconds and
// arrive as fractional numbers.
type DashboardStats struct {
	TotalVideos   int     `json:"totalVideos"`
	ValidVideos   int     `json:"validVideos"`
	TotalDuration float64 `json:"totalDuration"`
	AvgDuration   float64 `json:"avgDuration"`
}

// UserStats is the profile statistics block
type UserStats struct {
	TotalVideos   int `json:"totalVideos"`
	ValidVideos   int `json:"validVideos"`
	CurrentStreak int `json:"currentStreak"`
	LongestStreak int `json:"longestStreak"`
	TotalPoints   int `json:"totalPoints"`
}

// RewardsSummary lists earned and available rewards
type RewardsSummary struct {
	Earned         []Reward `json:"earned"`
	Available      []Reward `json:"available"`
	TotalAvailable int      `json:"totalAvailable"`
}

// AdminStats are the overview tiles
type AdminStats struct {
	TotalUsers    int `json:"totalUsers"`
	TotalVideos   int `json:"totalVideos"`
	PendingVideos int `json:"pendingVideos"`
	ValidVideos   int `json:"validVideos"`
}

// AdminOverview is the admin home aggregate
type AdminOverview struct {
	Stats        AdminStats `json:"stats"`
	RecentVideos []Video    `json:"recentVideos"`
	RecentUsers  []User     `json:"recentUsers"`
}

// AdminUser is a user row in the admin console
type AdminUser struct {
	User
	VideoStats struct {
		TotalVideos   int `json:"totalVideos"`
		PendingVideos int `json:"pendingVideos"`
	} `json:"videoStats"`
	StreakInfo struct {
		TotalDaysActive int `json:"totalDaysActive"`
	} `json:"streakInfo"`
}

// EligibleUser is a user whose streak meets the payment threshold
type EligibleUser struct {
	ID            string `json:"_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	CurrentStreak int    `json:"currentStreak"`
}

// VideoFilter narrows admin video listings
type VideoFilter struct {
	Status VideoStatus
	Page   int
	Limit  int
}

// Pagination is the paging block of list responses
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}
