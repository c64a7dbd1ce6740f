package calculator

import (
	"fmt"

	"github.com/mmynk/splitroom/internal/models"
)

// EqualShareExpressions returns draft raw shares that split sum equally among users,
// e.g. "90 / 3" for each of three users. A zero sum drafts "0" for everyone.
func EqualShareExpressions(sum float64, users []string) map[string]string {
	shares := make(map[string]string, len(users))
	for _, name := range users {
		if sum == 0 {
			shares[name] = "0"
			continue
		}
		shares[name] = fmt.Sprintf("%s / %d", models.FormatAmount(sum), len(users))
	}
	return shares
}
