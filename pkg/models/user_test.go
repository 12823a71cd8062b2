package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserScope(t *testing.T) {
	agent := &User{Email: "ravi@example.com", Role: RoleAgent}
	scope := agent.Scope()
	assert.False(t, scope.Admin)
	assert.Equal(t, "ravi@example.com", scope.Email)

	admin := &User{Email: "boss@example.com", Role: RoleAdmin}
	assert.Equal(t, AdminScope, admin.Scope())
	assert.True(t, admin.Scope().Admin)
}
