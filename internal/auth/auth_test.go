package auth

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/invoicestudio/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	mgr, err := NewManager(config.Config{AuthJWTSecret: "test-secret", AuthTokenTTL: 1})
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	id := node.Generate()

	token, err := mgr.IssueToken(id)
	require.NoError(t, err)

	got, err := mgr.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	a, err := NewManager(config.Config{AuthJWTSecret: "secret-a", AuthTokenTTL: 1})
	require.NoError(t, err)
	b, err := NewManager(config.Config{AuthJWTSecret: "secret-b", AuthTokenTTL: 1})
	require.NoError(t, err)

	node, _ := snowflake.NewNode(1)
	token, err := a.IssueToken(node.Generate())
	require.NoError(t, err)

	_, err = b.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	mgr, err := NewManager(config.Config{AuthJWTSecret: "test-secret", AuthTokenTTL: 1})
	require.NoError(t, err)

	_, err = mgr.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManagerRequiresSecret(t *testing.T) {
	_, err := NewManager(config.Config{})
	assert.ErrorIs(t, err, ErrMissingSecret)
}
