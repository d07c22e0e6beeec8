package catalog

import (
	"fmt"
	"strings"

	"cold-message/internal/domain"
)

// ValidationError reports a malformed message request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog: invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Validate checks a request against the catalog: a non-blank name, a known
// field, exactly SkillsPerRequest distinct skills from that field's vocabulary
// and a known message type. Matching is exact; see Normalize for
// case-insensitive canonicalization.
func (c *Catalog) Validate(req domain.MessageRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return invalid("name", "empty_name")
	}
	field, ok := c.LookupField(req.Field)
	if !ok || field.Name != req.Field {
		return invalid("field", "unknown_field")
	}
	if len(req.Skills) != SkillsPerRequest {
		return invalid("skills", "skill_count")
	}
	seen := make(map[string]bool, len(req.Skills))
	for _, s := range req.Skills {
		canonical, ok := field.Skill(s)
		if !ok || canonical != s {
			return invalid("skills", "skill_not_allowed")
		}
		if seen[s] {
			return invalid("skills", "duplicate_skill")
		}
		seen[s] = true
	}
	if !c.KnownMessageType(req.MessageType) {
		return invalid("messageType", "unknown_message_type")
	}
	return nil
}

// Normalize canonicalizes the field and skill spelling of req to the catalog
// and trims free-text inputs. Entries that cannot be matched are left as-is
// for Validate to reject.
func (c *Catalog) Normalize(req domain.MessageRequest) domain.MessageRequest {
	out := domain.MessageRequest{
		Name:           strings.TrimSpace(req.Name),
		Field:          strings.TrimSpace(req.Field),
		CompanyName:    strings.TrimSpace(req.CompanyName),
		JobDescription: strings.TrimSpace(req.JobDescription),
		MessageType:    domain.MessageType(strings.ToLower(strings.TrimSpace(string(req.MessageType)))),
	}
	field, ok := c.LookupField(out.Field)
	if ok {
		out.Field = field.Name
	}
	out.Skills = make([]string, 0, len(req.Skills))
	for _, s := range req.Skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if ok {
			if canonical, found := field.Skill(s); found {
				s = canonical
			}
		}
		out.Skills = append(out.Skills, s)
	}
	return out
}
