package models

import (
	"fmt"
	"time"
)

// PlayersPerCourt is both the ready group capacity and the size of a match.
const PlayersPerCourt = 4

type CourtStatus string

const (
	CourtStatusEmpty    CourtStatus = "empty"
	CourtStatusOccupied CourtStatus = "occupied"
)

// Court представляет площадку. MatchStartTime выставлен тогда и только тогда, когда площадка занята.
type Court struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Status         CourtStatus `json:"status"`
	MatchStartTime *time.Time  `json:"match_start_time"`
	Players        []Player    `json:"players"`
}

// CourtName returns the display name for the court at 1-based position n.
func CourtName(n int) string {
	return fmt.Sprintf("Court %d", n)
}

func (c Court) IsEmpty() bool {
	return c.Status == CourtStatusEmpty
}
