package pages

import "time"

// Ad is one creative entry stored in a page's ads_list.
type Ad struct {
	Brand      string  `json:"brand"`
	URL        string  `json:"url"`
	Impression float64 `json:"impression"`
	Spend      float64 `json:"spend"`
}

// Page is a named collection of creatives selected from a warehouse table.
type Page struct {
	PageID      int64     `json:"page_id"`
	PageName    string    `json:"page_name"`
	SourceTable string    `json:"source_table"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	AdsList     []Ad      `json:"ads_list"`
}

// ValueType selects raw or normalized metric columns when building a page.
type ValueType string

const (
	ValueRaw        ValueType = "RAW"
	ValueNormalized ValueType = "NORMALIZED"
)

// CreateRequest is the payload for creating a page.
type CreateRequest struct {
	PageName    string    `json:"page_name"`
	SourceTable string    `json:"source_table"`
	ValueType   ValueType `json:"value_type"`
}

// UpdateRequest is the payload for renaming a page.
type UpdateRequest struct {
	PageName string `json:"page_name"`
}
