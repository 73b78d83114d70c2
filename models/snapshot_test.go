package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func player(id string, at time.Time, status PlayerStatus) Player {
	return Player{ID: id, DisplayName: id, CheckInTime: at, Status: status}
}

func TestInitialSnapshot(t *testing.T) {
	s := InitialSnapshot(3)

	require.Len(t, s.Courts, 3)
	for i, c := range s.Courts {
		assert.Equal(t, CourtName(i+1), c.Name)
		assert.Equal(t, CourtStatusEmpty, c.Status)
		assert.NotNil(t, c.Players)
	}
	assert.Equal(t, []string{"1", "2", "3"}, []string{s.Courts[0].ID, s.Courts[1].ID, s.Courts[2].ID})
	assert.NotNil(t, s.Queue)
	assert.NotNil(t, s.ReadyGroup)
	assert.NoError(t, s.Validate())
}

func TestClone_IsDeep(t *testing.T) {
	start := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	s := InitialSnapshot(1)
	s.Courts[0].Status = CourtStatusOccupied
	s.Courts[0].MatchStartTime = &start
	s.Courts[0].Players = []Player{player("a", start, PlayerStatusPlaying)}
	s.Queue = []Player{player("b", start, PlayerStatusQueueing)}

	cp := s.Clone()
	cp.Courts[0].Players[0].DisplayName = "x"
	*cp.Courts[0].MatchStartTime = start.Add(time.Hour)
	cp.Queue[0].ID = "y"

	assert.Equal(t, "a", s.Courts[0].Players[0].DisplayName)
	assert.True(t, start.Equal(*s.Courts[0].MatchStartTime))
	assert.Equal(t, "b", s.Queue[0].ID)
}

func TestClone_NormalisesNilSlices(t *testing.T) {
	cp := (&Snapshot{Courts: []Court{{ID: "1", Name: "Court 1", Status: CourtStatusEmpty}}}).Clone()
	assert.NotNil(t, cp.Queue)
	assert.NotNil(t, cp.ReadyGroup)
	assert.NotNil(t, cp.Courts[0].Players)
}

func TestSortQueue_StableOnTies(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	q := []Player{
		player("late", t0.Add(time.Minute), PlayerStatusQueueing),
		player("first", t0, PlayerStatusQueueing),
		player("second", t0, PlayerStatusQueueing),
	}
	SortQueue(q)
	assert.Equal(t, "first", q[0].ID)
	assert.Equal(t, "second", q[1].ID)
	assert.Equal(t, "late", q[2].ID)
}

func TestRenumberCourts(t *testing.T) {
	courts := []Court{{Name: "Court 3"}, {Name: "Court 7"}}
	RenumberCourts(courts)
	assert.Equal(t, "Court 1", courts[0].Name)
	assert.Equal(t, "Court 2", courts[1].Name)
}

func TestValidate_RejectsBrokenInvariants(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)

	cases := map[string]func(s *Snapshot){
		"ready over capacity": func(s *Snapshot) {
			for _, id := range []string{"a", "b", "c", "d", "e"} {
				s.ReadyGroup = append(s.ReadyGroup, player(id, t0, PlayerStatusReady))
			}
		},
		"player in two places": func(s *Snapshot) {
			s.Queue = []Player{player("a", t0, PlayerStatusQueueing)}
			s.ReadyGroup = []Player{player("a", t0, PlayerStatusReady)}
		},
		"queue out of order": func(s *Snapshot) {
			s.Queue = []Player{player("a", t0.Add(time.Minute), PlayerStatusQueueing), player("b", t0, PlayerStatusQueueing)}
		},
		"gap in court names": func(s *Snapshot) {
			s.Courts[1].Name = "Court 5"
		},
		"duplicate court id": func(s *Snapshot) {
			s.Courts[1].ID = s.Courts[0].ID
		},
		"empty court with start time": func(s *Snapshot) {
			s.Courts[0].MatchStartTime = &t0
		},
		"occupied court with three players": func(s *Snapshot) {
			s.Courts[0].Status = CourtStatusOccupied
			s.Courts[0].MatchStartTime = &t0
			for _, id := range []string{"a", "b", "c"} {
				s.Courts[0].Players = append(s.Courts[0].Players, player(id, t0, PlayerStatusPlaying))
			}
		},
		"unknown court status": func(s *Snapshot) {
			s.Courts[0].Status = "closed"
		},
		"player without id": func(s *Snapshot) {
			s.Queue = []Player{player("", t0, PlayerStatusQueueing)}
		},
		"queued player marked ready": func(s *Snapshot) {
			s.Queue = []Player{player("a", t0, PlayerStatusReady)}
		},
		"ready player marked playing": func(s *Snapshot) {
			s.ReadyGroup = []Player{player("a", t0, PlayerStatusPlaying)}
		},
		"court player marked queueing": func(s *Snapshot) {
			s.Courts[0].Status = CourtStatusOccupied
			s.Courts[0].MatchStartTime = &t0
			for _, id := range []string{"a", "b", "c"} {
				s.Courts[0].Players = append(s.Courts[0].Players, player(id, t0, PlayerStatusPlaying))
			}
			s.Courts[0].Players = append(s.Courts[0].Players, player("d", t0, PlayerStatusQueueing))
		},
	}

	for name, breakIt := range cases {
		t.Run(name, func(t *testing.T) {
			s := InitialSnapshot(2)
			breakIt(s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestNewBoardView_DerivedTimes(t *testing.T) {
	now := time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)
	start := now.Add(-95 * time.Second)

	s := InitialSnapshot(2)
	s.Courts[0].Status = CourtStatusOccupied
	s.Courts[0].MatchStartTime = &start
	s.Queue = []Player{player("a", now.Add(-12*time.Minute-30*time.Second), PlayerStatusQueueing)}

	v := NewBoardView(s, now)

	require.Len(t, v.Courts, 2)
	assert.Equal(t, int64(95), v.Courts[0].ElapsedSeconds)
	assert.Equal(t, int64(0), v.Courts[1].ElapsedSeconds)
	require.Len(t, v.Queue, 1)
	assert.Equal(t, int64(12), v.Queue[0].WaitingMinutes)
	assert.Equal(t, now, v.AsOf)
}
