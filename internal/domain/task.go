package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Platform enumerates social networks a task can target.
type Platform string

const (
	PlatformInstagram Platform = "INSTAGRAM"
	PlatformYouTube   Platform = "YOUTUBE"
	PlatformTikTok    Platform = "TIKTOK"
	PlatformFacebook  Platform = "FACEBOOK"
	PlatformTwitter   Platform = "TWITTER"
	PlatformLinkedIn  Platform = "LINKEDIN"
)

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformInstagram, PlatformYouTube, PlatformTikTok, PlatformFacebook, PlatformTwitter, PlatformLinkedIn:
		return true
	}
	return false
}

// EngagementType enumerates the action an engager performs.
type EngagementType string

const (
	EngagementLike    EngagementType = "LIKE"
	EngagementFollow  EngagementType = "FOLLOW"
	EngagementComment EngagementType = "COMMENT"
	EngagementView    EngagementType = "VIEW"
	EngagementShare   EngagementType = "SHARE"
)

// Valid reports whether e is a supported engagement type.
func (e EngagementType) Valid() bool {
	switch e {
	case EngagementLike, EngagementFollow, EngagementComment, EngagementView, EngagementShare:
		return true
	}
	return false
}

// Task is an immutable unit of engagement work with a fixed payout.
type Task struct {
	ID             string
	CampaignID     *string
	Platform       Platform
	EngagementType EngagementType
	Description    string
	Payout         decimal.Decimal
	Link           string
	Active         bool
	CreatedAt      time.Time
}
