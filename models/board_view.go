package models

import "time"

// CourtView adds the running match time shown on the court card.
type CourtView struct {
	Court
	ElapsedSeconds int64 `json:"elapsed_seconds"`
}

// WaitingPlayer adds how long a queued player has been waiting.
type WaitingPlayer struct {
	Player
	WaitingMinutes int64 `json:"waiting_minutes"`
}

// BoardView is the read model served to board screens.
type BoardView struct {
	Courts     []CourtView     `json:"courts"`
	Queue      []WaitingPlayer `json:"queue"`
	ReadyGroup []Player        `json:"ready_group"`
	AsOf       time.Time       `json:"as_of"`
}

func NewBoardView(s *Snapshot, now time.Time) BoardView {
	v := BoardView{
		Courts:     make([]CourtView, 0, len(s.Courts)),
		Queue:      make([]WaitingPlayer, 0, len(s.Queue)),
		ReadyGroup: append([]Player{}, s.ReadyGroup...),
		AsOf:       now,
	}
	for _, c := range s.Courts {
		cv := CourtView{Court: c.clone()}
		if c.MatchStartTime != nil {
			cv.ElapsedSeconds = int64(now.Sub(*c.MatchStartTime) / time.Second)
		}
		v.Courts = append(v.Courts, cv)
	}
	for _, p := range s.Queue {
		v.Queue = append(v.Queue, WaitingPlayer{
			Player:         p,
			WaitingMinutes: int64(now.Sub(p.CheckInTime) / time.Minute),
		})
	}
	return v
}
