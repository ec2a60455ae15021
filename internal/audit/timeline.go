package audit

import "time"

const (
	defaultPageSize = 50
	maxDateRange    = 90 * 24 * time.Hour
	maxExportRows   = 5000
)

// TimelineFilters narrows the activity timeline.
type TimelineFilters struct {
	StoreID  string    `json:"storeId"`
	Entity   string    `json:"entity"`
	EntityID string    `json:"entityId"`
	Action   string    `json:"action"`
	UserID   string    `json:"userId"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Page     int       `json:"page" validate:"gte=0"`
	PageSize int       `json:"pageSize" validate:"gte=0"`
}

// Export is a rendered CSV download.
type Export struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
	Rows        int    `json:"rows"`
}
