package model

// Item is the domain model for a todo entry.
// Items are immutable once stored; the store hands out copies.
type Item struct {
	ID       int    `json:"id" yaml:"id"`
	Text     string `json:"text" yaml:"text"`
	Priority int    `json:"priority" yaml:"priority"`
}
