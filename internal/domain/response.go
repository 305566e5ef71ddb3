package domain

import "time"

// Response is one persisted completion, owned by the username it was written
// against. Records are append-only: created after a successful authenticated
// stream (or an explicit add), never mutated, deletable by their owner.
type Response struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
