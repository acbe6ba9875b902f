package models

import "time"

type Lead struct {
	ID        string
	Name      string
	Email     string
	Company   string
	Message   string
	Source    string
	CreatedAt time.Time
}

type Subscriber struct {
	Email     string
	Source    string
	CreatedAt time.Time
}

// FieldNote is the public shape of a blog entry pulled from Notion.
type FieldNote struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Type      string     `json:"type"`
	Focus     []string   `json:"focus"`
	Status    string     `json:"status"`
	Created   time.Time  `json:"created"`
	Revisited *time.Time `json:"revisited"`
	URL       string     `json:"url"`
}
