package usecase

import (
	"math/rand/v2"
	"strings"

	"cold-message/internal/catalog"
	"cold-message/internal/domain"
)

// Picker chooses an index in [0, n). *rand.Rand satisfies it.
type Picker interface {
	IntN(n int) int
}

type globalPicker struct{}

func (globalPicker) IntN(n int) int { return rand.IntN(n) }

// DefaultPicker draws from the process-wide random source.
func DefaultPicker() Picker { return globalPicker{} }

// BuildFallbackMessage composes a message from the catalog's template pools
// without a model: one intro, one body and one closing, picked in that order
// and joined by single spaces. Body and closing pools depend on the message
// type. It never fails.
func BuildFallbackMessage(c *catalog.Catalog, req domain.MessageRequest, pick Picker) string {
	if pick == nil {
		pick = DefaultPicker()
	}

	var company, job string
	if name := normalizePromptInput(req.CompanyName); name != "" {
		company = strings.ReplaceAll(c.CompanySuffix(), "{company}", name)
	}
	if desc := normalizePromptInput(req.JobDescription); desc != "" {
		job = strings.ReplaceAll(c.JobFragment(), "{job}", truncate(desc, c.JobMaxLength()))
	}
	intro := strings.NewReplacer(
		"{name}", strings.TrimSpace(req.Name),
		"{field}", strings.ToLower(req.Field),
		"{skills}", strings.Join(req.Skills, ", "),
		"{company}", company,
		"{job}", job,
	).Replace(choose(pick, c.Intros()))

	body := choose(pick, c.Bodies(req.MessageType))
	closing := choose(pick, c.Closings(req.MessageType))
	return intro + " " + body + " " + closing
}

func choose(pick Picker, pool []string) string {
	i := pick.IntN(len(pool))
	if i < 0 || i >= len(pool) {
		i = 0
	}
	return pool[i]
}

// truncate cuts s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimRight(string(r[:max]), " ") + "..."
}
