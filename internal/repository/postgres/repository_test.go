package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/okurilov/meetradar/internal/testutil"
)

func TestNewPresenceRepository(t *testing.T) {
	db := &Connection{}
	repo := NewPresenceRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestNewProfileRepository(t *testing.T) {
	db := &Connection{}
	repo := NewProfileRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestNewMatchRepository(t *testing.T) {
	db := &Connection{}
	repo := NewMatchRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestNewPresenceListener(t *testing.T) {
	db := &Connection{}
	listener := NewPresenceListener(db, testutil.MakeNoopLogger())

	assert.NotNil(t, listener)
	assert.Equal(t, db, listener.db)
}
