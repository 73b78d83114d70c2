package models

import "time"

// PlayerStatus отражает, где сейчас находится игрок.
type PlayerStatus string

const (
	PlayerStatusQueueing PlayerStatus = "queueing"
	PlayerStatusReady    PlayerStatus = "ready"
	PlayerStatusPlaying  PlayerStatus = "playing"
)

// Player представляет отметившегося игрока.
type Player struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"display_name"`
	AvatarURL   string       `json:"avatar_url"`
	CheckInTime time.Time    `json:"check_in_time"`
	Status      PlayerStatus `json:"status"`
}

// PlayerSource names the collection a player is addressed in.
type PlayerSource string

const (
	SourceQueue PlayerSource = "queue"
	SourceReady PlayerSource = "ready"
)

func (s PlayerSource) Valid() bool {
	return s == SourceQueue || s == SourceReady
}
