package teams

import (
	"math/rand"

	"teamup-bot/internal/model"
)

// Member is a participant's share of a team. A participant who brought
// guests may have their slots spread over several teams.
type Member struct {
	Participant model.Participant
	Slots       int
}

// Guests is the number of slots beyond the participant themself.
func (m Member) Guests() int {
	return m.Slots - 1
}

// Team is one group of the partition, numbered from 1.
type Team struct {
	Number  int
	Members []Member
}

// Size is the number of slots in the team.
func (t Team) Size() int {
	n := 0
	for _, m := range t.Members {
		n += m.Slots
	}
	return n
}

// ExpandedCount is the headcount of a roster, guests included.
func ExpandedCount(participants []model.Participant) int {
	n := 0
	for _, p := range participants {
		n += p.PlusCount
	}
	return n
}

// Split partitions the expanded roster into n teams. Every slot is shuffled
// independently and dealt round-robin, so team sizes differ by at most one.
// Members of a team keep roster order.
func Split(participants []model.Participant, n int, rng *rand.Rand) []Team {
	if n <= 0 {
		return nil
	}
	slots := make([]int, 0, ExpandedCount(participants))
	for i, p := range participants {
		for k := 0; k < p.PlusCount; k++ {
			slots = append(slots, i)
		}
	}
	rng.Shuffle(len(slots), func(i, j int) {
		slots[i], slots[j] = slots[j], slots[i]
	})

	counts := make([][]int, n)
	for t := range counts {
		counts[t] = make([]int, len(participants))
	}
	for i, idx := range slots {
		counts[i%n][idx]++
	}

	teams := make([]Team, n)
	for t := range teams {
		teams[t].Number = t + 1
		for i, p := range participants {
			if c := counts[t][i]; c > 0 {
				teams[t].Members = append(teams[t].Members, Member{Participant: p, Slots: c})
			}
		}
	}
	return teams
}
