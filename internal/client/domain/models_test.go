package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(ServiceActive, ServiceSuspended))
	assert.True(t, CanTransition(ServiceSuspended, ServiceActive))
	assert.True(t, CanTransition(ServiceActive, ServiceCancelled))
	assert.False(t, CanTransition(ServiceCancelled, ServiceActive))
	assert.False(t, CanTransition(ServiceActive, ServiceActive))
	assert.False(t, CanTransition(ServiceActive, ServiceStatus("paused")))
}
