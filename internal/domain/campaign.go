package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignStatus enumerates campaign lifecycle states.
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "ACTIVE"
	CampaignPaused    CampaignStatus = "PAUSED"
	CampaignCompleted CampaignStatus = "COMPLETED"
)

// Campaign groups the tasks a creator funds.
type Campaign struct {
	ID             string
	CreatorID      string
	Name           string
	Platform       Platform
	EngagementType EngagementType
	Budget         decimal.Decimal
	PayoutPerTask  decimal.Decimal
	TotalTasks     int
	CompletedTasks int
	Status         CampaignStatus
	Link           string
	TaskID         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
