package entity

import "time"

// NewsItem is a single article from the upstream company-news feed.
type NewsItem struct {
	Time     time.Time `json:"time"`
	Headline string    `json:"headline"`
	Source   string    `json:"source"`
	Summary  string    `json:"summary"`
	URL      string    `json:"url"`
}
