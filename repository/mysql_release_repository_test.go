package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNullTime(t *testing.T) {
	assert.False(t, nullTime(nil).Valid)

	now := time.Now()
	nt := nullTime(&now)
	assert.True(t, nt.Valid)
	assert.True(t, nt.Time.Equal(now))
}
