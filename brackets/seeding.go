package brackets

import "fmt"

const maxBracketSize = 32

func validSize(size int) bool {
	return size >= 2 && size <= maxBracketSize && size&(size-1) == 0
}

// SeedOrder returns the seeds of a bracket in slot order, so slots 2k and
// 2k+1 meet in the first round. Seed k always meets seed size+1-k, and the
// top two seeds sit in opposite halves, the top four in opposite quarters
// and so on.
func SeedOrder(size int) []int {
	order := []int{1}
	for n := 2; n <= size; n *= 2 {
		next := make([]int, 0, n)
		for _, s := range order {
			next = append(next, s, n+1-s)
		}
		order = next
	}
	return order
}

// RoundName names an elimination round by the number of teams still in it.
func RoundName(teams int) string {
	switch teams {
	case 2:
		return "Finals"
	case 4:
		return "Semifinals"
	case 8:
		return "Quarterfinals"
	case 16:
		return "Octofinals"
	default:
		return fmt.Sprintf("Round of %d", teams)
	}
}

// RoundNames lists the round names of a bracket from the first round to the final.
func RoundNames(size int) []string {
	var names []string
	for teams := size; teams >= 2; teams /= 2 {
		names = append(names, RoundName(teams))
	}
	return names
}
