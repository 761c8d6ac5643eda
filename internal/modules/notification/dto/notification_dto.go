package dto

import (
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/notification/repository"
)

// PollIntervals tells dashboards how often to refresh when push is unavailable.
type PollIntervals struct {
	ConversationMS int64 `json:"conversation_ms"`
	BadgeMS        int64 `json:"badge_ms"`
}

type SummaryResponse struct {
	UnreadCount  int64                         `json:"unread_count"`
	Applications []repository.ApplicationState `json:"applications"`
	Poll         PollIntervals                 `json:"poll"`
	PushEnabled  bool                          `json:"push_enabled"`
}
