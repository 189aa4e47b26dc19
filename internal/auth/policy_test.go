package auth

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/rollcall-admin/rollcall/internal/db/models"
)

func TestAuthorize(t *testing.T) {
	policy := NewPolicy(DefaultPolicies(), 16)

	tests := []struct {
		name     string
		role     models.Role
		username string
		path     string
		verb     string
		want     bool
	}{
		{"root anything", models.RoleRoot, "root", "/anything/at/all", fiber.MethodDelete, true},
		{"root users", models.RoleRoot, "root", "/users/bob", fiber.MethodDelete, true},
		{"root options", models.RoleRoot, "root", "/users", fiber.MethodOptions, true},
		{"root trace", models.RoleRoot, "root", "/users", fiber.MethodTrace, true},
		{"root connect", models.RoleRoot, "root", "/person/42", fiber.MethodConnect, true},
		{"root custom verb", models.RoleRoot, "root", "/", "PURGE", true},
		{"admin trace", models.RoleAdmin, "ana", "/users", fiber.MethodTrace, false},
		{"admin users delete", models.RoleAdmin, "ana", "/users/bob", fiber.MethodDelete, true},
		{"admin person create", models.RoleAdmin, "ana", "/person", fiber.MethodPost, true},
		{"admin unknown path", models.RoleAdmin, "ana", "/metrics", fiber.MethodGet, false},
		{"operator person get", models.RoleOperator, "alice", "/person/42", fiber.MethodGet, true},
		{"operator person put", models.RoleOperator, "alice", "/person/42", fiber.MethodPut, true},
		{"operator person post", models.RoleOperator, "alice", "/person/42", fiber.MethodPost, true},
		{"operator person delete", models.RoleOperator, "alice", "/person/42", fiber.MethodDelete, true},
		{"operator other user get", models.RoleOperator, "alice", "/users/bob", fiber.MethodGet, true},
		{"operator other user delete", models.RoleOperator, "alice", "/users/bob", fiber.MethodDelete, false},
		{"operator other user avatar", models.RoleOperator, "alice", "/users/bob", fiber.MethodPost, false},
		{"operator own avatar", models.RoleOperator, "alice", "/users/alice", fiber.MethodPost, true},
		{"operator own delete", models.RoleOperator, "alice", "/users/alice", fiber.MethodDelete, false},
		{"operator list users", models.RoleOperator, "alice", "/users", fiber.MethodGet, true},
		{"operator self edit", models.RoleOperator, "alice", "/users", fiber.MethodPut, true},
		{"operator create user", models.RoleOperator, "alice", "/users", fiber.MethodPost, false},
		{"operator bulk users", models.RoleOperator, "alice", "/users/bulkcreate", fiber.MethodPost, false},
		{"operator prefix username", models.RoleOperator, "al", "/users/alice", fiber.MethodPost, false},
		{"unknown role", models.Role("guest"), "x", "/person", fiber.MethodGet, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Authorize(tt.role, tt.username, tt.path, tt.verb))
		})
	}
}

func TestRuleAllows(t *testing.T) {
	assert.True(t, Rule{Verbs: VerbsAny}.Allows(fiber.MethodOptions))
	assert.True(t, Rule{Verbs: VerbsRead}.Allows(fiber.MethodHead))
	assert.False(t, Rule{Verbs: VerbsRead}.Allows(fiber.MethodPut))
	assert.False(t, Rule{}.Allows(fiber.MethodGet), "an empty verb set denies")
}

func TestEvaluateFirstPathMatchWins(t *testing.T) {
	table := DefaultPolicies()
	rules := table.Rules(models.RoleOperator, "alice")

	// the personal rule matches first and does not allow DELETE, even though
	// no later rule would allow it either
	assert.False(t, Evaluate(rules, "/users/alice", fiber.MethodDelete))

	overlap := []Rule{rules[0], {Pattern: rules[0].Pattern, Verbs: VerbsAll}}
	assert.False(t, Evaluate(overlap, "/users/alice", fiber.MethodDelete))
	assert.False(t, Evaluate(nil, "/person", fiber.MethodGet))
}

func TestRulesArePersonalised(t *testing.T) {
	table := DefaultPolicies()

	alice := table.Rules(models.RoleOperator, "alice")
	bob := table.Rules(models.RoleOperator, "bob")

	assert.Len(t, alice, len(table.Rules(models.RoleOperator, ""))+1)
	assert.True(t, alice[0].Pattern.MatchString("/users/alice/avatar"))
	assert.False(t, bob[0].Pattern.MatchString("/users/alice"))
	assert.Len(t, table.Rules(models.RoleRoot, "root"), 1)
}

func TestPolicyCache(t *testing.T) {
	policy := NewPolicy(DefaultPolicies(), 2)

	policy.Authorize(models.RoleOperator, "alice", "/person", fiber.MethodGet)
	policy.Authorize(models.RoleOperator, "bob", "/person", fiber.MethodGet)
	policy.Authorize(models.RoleOperator, "carol", "/person", fiber.MethodGet)

	assert.Equal(t, 2, policy.cache.Len())
	assert.True(t, policy.Authorize(models.RoleOperator, "alice", "/users/alice", fiber.MethodPost))
}
