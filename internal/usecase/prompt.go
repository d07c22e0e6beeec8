package usecase

import (
	"strings"

	"cold-message/internal/catalog"
	"cold-message/internal/domain"
)

// BuildPrompt assembles the model prompt for req. Company and job sections are
// included only when non-blank. The message-type clause is looked up by exact
// match; an unrecognized type gets no clause. The result is deterministic.
func BuildPrompt(c *catalog.Catalog, req domain.MessageRequest) string {
	p := c.Prompt()
	company := normalizePromptInput(req.CompanyName)
	job := normalizePromptInput(req.JobDescription)
	r := strings.NewReplacer(
		"{name}", strings.TrimSpace(req.Name),
		"{field}", req.Field,
		"{skills}", strings.Join(req.Skills, ", "),
		"{company}", company,
		"{job}", job,
	)

	sections := []string{r.Replace(p.Opening)}
	if company != "" {
		sections = append(sections, r.Replace(p.Company))
	}
	if job != "" {
		sections = append(sections, r.Replace(p.Job))
	}
	if clause, ok := c.Clause(req.MessageType); ok {
		sections = append(sections, clause)
	}
	sections = append(sections, p.Closing)
	return strings.Join(sections, "\n")
}

func normalizePromptInput(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}
