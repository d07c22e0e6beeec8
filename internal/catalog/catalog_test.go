package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cold-message/internal/domain"
)

func validRequest() domain.MessageRequest {
	return domain.MessageRequest{
		Name:        "Ana",
		Field:       "Marketing",
		Skills:      []string{"SEO", "Branding", "Analytics"},
		MessageType: domain.MessageTypeLinkedIn,
	}
}

func TestDefault_LoadsEmbeddedCatalog(t *testing.T) {
	c := Default()
	fields := c.Fields()
	require.Len(t, fields, 3)
	require.Equal(t, "Web Development", fields[0].Name)
	require.Equal(t, "Data Science", fields[1].Name)
	require.Equal(t, "Marketing", fields[2].Name)
	require.Len(t, fields[2].Skills, 10)
	require.Equal(t, []string{"hi", "hello", "greetings", "dear"}, c.Greetings())
	for _, mt := range domain.MessageTypes {
		require.True(t, c.KnownMessageType(mt), "type=%s", mt)
	}
}

func TestFields_ReturnsCopy(t *testing.T) {
	c := Default()
	fields := c.Fields()
	fields[0].Skills[0] = "mutated"
	fields[0].Name = "mutated"

	again := c.Fields()
	require.Equal(t, "Web Development", again[0].Name)
	require.Equal(t, "React", again[0].Skills[0])
}

func TestLookupField_IgnoresCase(t *testing.T) {
	f, ok := Default().LookupField("  data science ")
	require.True(t, ok)
	require.Equal(t, "Data Science", f.Name)

	_, ok = Default().LookupField("Astronomy")
	require.False(t, ok)
}

func TestField_Skill(t *testing.T) {
	f, ok := Default().LookupField("Web Development")
	require.True(t, ok)

	s, ok := f.Skill("node.js")
	require.True(t, ok)
	require.Equal(t, "Node.js", s)

	_, ok = f.Skill("Pandas")
	require.False(t, ok)
}

func TestHasGreeting(t *testing.T) {
	c := Default()
	require.True(t, c.HasGreeting("Hi! there"))
	require.True(t, c.HasGreeting("  Dear Sir, ..."))
	require.True(t, c.HasGreeting("GREETINGS from afar"))
	require.False(t, c.HasGreeting("I am excited to connect."))
	require.False(t, c.HasGreeting(""))
}

func TestPools_SelectByMessageType(t *testing.T) {
	c := Default()
	require.NotEqual(t, c.Bodies(domain.MessageTypeLinkedIn), c.Bodies(domain.MessageTypeCollaboration))
	require.Equal(t, c.Bodies(domain.MessageTypeLinkedIn), c.Bodies(domain.MessageTypeEmail))
	require.NotEqual(t, c.Closings(domain.MessageTypeLinkedIn), c.Closings(domain.MessageTypeEmail))
	require.Equal(t, c.Closings(domain.MessageTypeLinkedIn), c.Closings(domain.MessageTypeCollaboration))
	require.Len(t, c.Intros(), 3)
	require.Len(t, c.Bodies(domain.MessageTypeCollaboration), 3)
	require.Len(t, c.Closings(domain.MessageTypeEmail), 3)
	require.Equal(t, 50, c.JobMaxLength())
}

func TestClause_ExactMatchOnly(t *testing.T) {
	c := Default()
	_, ok := c.Clause(domain.MessageTypeEmail)
	require.True(t, ok)
	_, ok = c.Clause("EMAIL")
	require.False(t, ok)
	_, ok = c.Clause("fax")
	require.False(t, ok)
}

func TestParse_RejectsInvalidDocuments(t *testing.T) {
	_, err := Parse([]byte("fields: ["))
	require.Error(t, err)

	_, err = Parse([]byte("greetings: [hi]"))
	require.ErrorContains(t, err, "no fields")

	_, err = Parse([]byte(`
fields:
  - name: Marketing
    skills: [SEO, CRM]
`))
	require.ErrorContains(t, err, "at least 3 skills")

	_, err = Parse([]byte(`
fields:
  - name: Marketing
    skills: [SEO, CRM, Branding]
greetings: [hi]
prompt: {opening: "o", closing: "c"}
fallback:
  intros: ["Yo {name}"]
  job_max_length: 50
  bodies: {default: [b]}
  closings: {default: [c]}
`))
	require.ErrorContains(t, err, "does not start with a greeting")
}

func expectInvalid(t *testing.T, err error, reason string) {
	t.Helper()
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, reason, vErr.Reason)
}

func TestValidate(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate(validRequest()))

	req := validRequest()
	req.Name = "   "
	expectInvalid(t, c.Validate(req), "empty_name")

	req = validRequest()
	req.Field = "Astronomy"
	expectInvalid(t, c.Validate(req), "unknown_field")

	req = validRequest()
	req.Skills = []string{"SEO", "Branding"}
	expectInvalid(t, c.Validate(req), "skill_count")

	req = validRequest()
	req.Skills = []string{"SEO", "Branding", "Pandas"}
	expectInvalid(t, c.Validate(req), "skill_not_allowed")

	req = validRequest()
	req.Skills = []string{"SEO", "SEO", "Branding"}
	expectInvalid(t, c.Validate(req), "duplicate_skill")

	req = validRequest()
	req.MessageType = "fax"
	expectInvalid(t, c.Validate(req), "unknown_message_type")
}

func TestNormalize_CanonicalizesSpelling(t *testing.T) {
	c := Default()
	out := c.Normalize(domain.MessageRequest{
		Name:           "  Ana ",
		Field:          "marketing",
		Skills:         []string{" seo", "BRANDING", "", "analytics"},
		CompanyName:    " Acme ",
		JobDescription: "  Growth lead  ",
		MessageType:    " Email ",
	})
	require.Equal(t, "Ana", out.Name)
	require.Equal(t, "Marketing", out.Field)
	require.Equal(t, []string{"SEO", "Branding", "Analytics"}, out.Skills)
	require.Equal(t, "Acme", out.CompanyName)
	require.Equal(t, "Growth lead", out.JobDescription)
	require.Equal(t, domain.MessageTypeEmail, out.MessageType)
	require.NoError(t, c.Validate(out))
}
