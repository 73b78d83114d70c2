package models

import (
	"fmt"
	"sort"
)

// Snapshot is the full persisted state of the board.
type Snapshot struct {
	Courts     []Court  `json:"courts"`
	Queue      []Player `json:"queue"`
	ReadyGroup []Player `json:"ready_group"`
}

// InitialSnapshot returns the starting roster: courtCount empty courts and no players.
// Court ids of the starting roster are their 1-based positions.
func InitialSnapshot(courtCount int) *Snapshot {
	s := &Snapshot{
		Courts:     make([]Court, 0, courtCount),
		Queue:      []Player{},
		ReadyGroup: []Player{},
	}
	for i := 1; i <= courtCount; i++ {
		s.Courts = append(s.Courts, Court{
			ID:      fmt.Sprintf("%d", i),
			Name:    CourtName(i),
			Status:  CourtStatusEmpty,
			Players: []Player{},
		})
	}
	return s
}

// Clone returns a deep copy; nil slices come back as empty ones.
func (s *Snapshot) Clone() *Snapshot {
	cp := &Snapshot{
		Courts:     make([]Court, len(s.Courts)),
		Queue:      append([]Player{}, s.Queue...),
		ReadyGroup: append([]Player{}, s.ReadyGroup...),
	}
	for i, c := range s.Courts {
		cp.Courts[i] = c.clone()
	}
	return cp
}

func (c Court) clone() Court {
	cp := c
	cp.Players = append([]Player{}, c.Players...)
	if c.MatchStartTime != nil {
		t := *c.MatchStartTime
		cp.MatchStartTime = &t
	}
	return cp
}

// CloneCourts returns a deep copy of the given courts.
func CloneCourts(courts []Court) []Court {
	out := make([]Court, len(courts))
	for i, c := range courts {
		out[i] = c.clone()
	}
	return out
}

// SortQueue orders the queue by ascending check-in time, keeping arrival order on ties.
func SortQueue(queue []Player) {
	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].CheckInTime.Before(queue[j].CheckInTime)
	})
}

// RenumberCourts rewrites court names to the dense 1..N sequence of list order.
func RenumberCourts(courts []Court) {
	for i := range courts {
		courts[i].Name = CourtName(i + 1)
	}
}

// Validate checks the board invariants. A snapshot that fails validation
// is treated as corrupt by the loader.
func (s *Snapshot) Validate() error {
	if len(s.ReadyGroup) > PlayersPerCourt {
		return fmt.Errorf("ready group holds %d players, max %d", len(s.ReadyGroup), PlayersPerCourt)
	}

	seen := make(map[string]string)
	track := func(p Player, where string, want PlayerStatus) error {
		if p.ID == "" {
			return fmt.Errorf("player without id in %s", where)
		}
		if prev, ok := seen[p.ID]; ok {
			return fmt.Errorf("player %s appears in both %s and %s", p.ID, prev, where)
		}
		if p.Status != want {
			return fmt.Errorf("player %s in %s has status %q, want %q", p.ID, where, p.Status, want)
		}
		seen[p.ID] = where
		return nil
	}

	for i, p := range s.Queue {
		if err := track(p, "queue", PlayerStatusQueueing); err != nil {
			return err
		}
		if i > 0 && p.CheckInTime.Before(s.Queue[i-1].CheckInTime) {
			return fmt.Errorf("queue is not ordered by check-in time at position %d", i)
		}
	}
	for _, p := range s.ReadyGroup {
		if err := track(p, "ready group", PlayerStatusReady); err != nil {
			return err
		}
	}

	courtIDs := make(map[string]bool, len(s.Courts))
	for i, c := range s.Courts {
		if c.ID == "" || courtIDs[c.ID] {
			return fmt.Errorf("court at position %d has a missing or duplicate id", i+1)
		}
		courtIDs[c.ID] = true

		if c.Name != CourtName(i+1) {
			return fmt.Errorf("court %s is named %q, want %q", c.ID, c.Name, CourtName(i+1))
		}
		switch c.Status {
		case CourtStatusEmpty:
			if len(c.Players) != 0 || c.MatchStartTime != nil {
				return fmt.Errorf("empty court %s has players or a start time", c.ID)
			}
		case CourtStatusOccupied:
			if len(c.Players) != PlayersPerCourt || c.MatchStartTime == nil {
				return fmt.Errorf("occupied court %s must have %d players and a start time", c.ID, PlayersPerCourt)
			}
		default:
			return fmt.Errorf("court %s has unknown status %q", c.ID, c.Status)
		}
		for _, p := range c.Players {
			if err := track(p, "court "+c.ID, PlayerStatusPlaying); err != nil {
				return err
			}
		}
	}
	return nil
}
