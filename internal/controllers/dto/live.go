package dto

import (
	"time"

	"github.com/oshiworks/streamvault/internal/models"
)

// LiveStatusResponse is the check-live wire shape. Error carries access
// conditions that are answers, not faults: a members-only stream the
// account cannot see still yields a 200 with isLive=false.
type LiveStatusResponse struct {
	IsLive    bool               `json:"isLive"`
	Stream    *models.LiveStream `json:"stream"`
	Error     string             `json:"error,omitempty"`
	CheckedAt time.Time          `json:"checkedAt"`
}
