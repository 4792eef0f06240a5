package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "role:manager", Session{Role: RoleManager}.Subject())
	assert.Equal(t, "role:freelancer", Session{Role: RoleFreelancer}.Subject())
	assert.Equal(t, "role:superadmin", Session{Role: RoleManager, Superadmin: true}.Subject())
	assert.Equal(t, "role:anonymous", Session{}.Subject())
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithSession(context.Background(), Session{IdentityID: 42, Role: RoleFreelancer})
	sess, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.True(t, sess.IsFreelancer())
	assert.True(t, sess.HasProfile())
	assert.False(t, sess.IsManager())
}
