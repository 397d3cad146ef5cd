package model

import "time"

// ReindexRequest asks for the knowledge base to ingest storage changes.
type ReindexRequest struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}
