package auth

import (
	"regexp"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rollcall-admin/rollcall/internal/db/models"
)

const defaultPolicyTTL = time.Hour

// Rule allows Verbs on every path matching Pattern.
type Rule struct {
	Pattern *regexp.Regexp
	Verbs   []string
}

// Allows reports whether verb is in the rule's verb set.
func (r Rule) Allows(verb string) bool {
	return slices.Contains(r.Verbs, AnyVerb) || slices.Contains(r.Verbs, verb)
}

// PolicyTable maps roles to ordered rules. It is built once and never mutated.
type PolicyTable struct {
	roles map[models.Role][]Rule
}

// DefaultPolicies returns the built in role table.
func DefaultPolicies() PolicyTable {
	return PolicyTable{
		roles: map[models.Role][]Rule{
			models.RoleRoot: {
				{Pattern: regexp.MustCompile(`.*`), Verbs: VerbsAny},
			},
			models.RoleAdmin: {
				{Pattern: regexp.MustCompile(`^/users(/.*)?$`), Verbs: VerbsAll},
				{Pattern: regexp.MustCompile(`^/person(/.*)?$`), Verbs: VerbsAll},
			},
			models.RoleOperator: {
				{Pattern: regexp.MustCompile(`^/person(/.*)?$`), Verbs: VerbsAll},
				{Pattern: regexp.MustCompile(`^/users/?$`), Verbs: VerbsReadUpdate},
				{Pattern: regexp.MustCompile(`^/users/.+`), Verbs: VerbsRead},
			},
		},
	}
}

// Rules returns the rules of role for username. Operators get a rule for their own
// user path ahead of the role rules.
func (t PolicyTable) Rules(role models.Role, username string) []Rule {
	base := t.roles[role]
	if role != models.RoleOperator || username == "" {
		return base
	}

	personal := Rule{
		Pattern: regexp.MustCompile(`^/users/` + regexp.QuoteMeta(username) + `(/.*)?$`),
		Verbs:   VerbsSelf,
	}

	return append([]Rule{personal}, base...)
}

// Evaluate applies rules in order. The first rule whose pattern matches the path
// decides. No match denies.
func Evaluate(rules []Rule, path, verb string) bool {
	for _, r := range rules {
		if r.Pattern.MatchString(path) {
			return r.Allows(verb)
		}
	}

	return false
}

// Policy authorizes requests against a table, caching personalised rule sets.
type Policy struct {
	table PolicyTable
	cache *expirable.LRU[string, []Rule]
}

// NewPolicy creates a policy engine whose cache holds up to size rule sets.
func NewPolicy(table PolicyTable, size int) *Policy {
	if size <= 0 {
		size = 1
	}

	return &Policy{
		table: table,
		cache: expirable.NewLRU[string, []Rule](size, nil, defaultPolicyTTL),
	}
}

// Authorize decides whether username with role may use verb on path.
func (p *Policy) Authorize(role models.Role, username, path, verb string) bool {
	return Evaluate(p.rules(role, username), path, verb)
}

func (p *Policy) rules(role models.Role, username string) []Rule {
	if role != models.RoleOperator {
		return p.table.Rules(role, username)
	}

	key := string(role) + ":" + username
	if rules, ok := p.cache.Get(key); ok {
		return rules
	}

	rules := p.table.Rules(role, username)
	p.cache.Add(key, rules)

	return rules
}
