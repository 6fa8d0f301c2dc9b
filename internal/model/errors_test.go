package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigurationError(t *testing.T) {
	err := NewConfigurationError(MsgUnknownCriterion, map[string]string{"criterion": "XYZ"})

	assert.Equal(t, ErrCodeConfiguration, err.Code)
	assert.Equal(t, "XYZ", err.Details["criterion"])
	assert.Equal(t, "CONFIGURATION: unknown scheduling criterion", err.Error())
}

func TestError_IncludesCycleID(t *testing.T) {
	err := NewConsistencyError(MsgStationNotSignalled, nil)
	err.CycleID = "cycle-7"

	assert.Contains(t, err.Error(), "INTERNAL_CONSISTENCY")
	assert.Contains(t, err.Error(), "cycle=cycle-7")
}

func TestIsConfigurationError(t *testing.T) {
	cfgErr := NewConfigurationError(MsgInconsistentRule, nil)
	consErr := NewConsistencyError(MsgEmptyConflictGroup, nil)

	assert.True(t, IsConfigurationError(cfgErr))
	assert.True(t, IsConfigurationError(fmt.Errorf("rank: %w", cfgErr)))
	assert.False(t, IsConfigurationError(consErr))
	assert.False(t, IsConfigurationError(nil))
	assert.False(t, IsConfigurationError(assert.AnError))
}

func TestIsConsistencyError(t *testing.T) {
	cfgErr := NewConfigurationError(MsgInconsistentRule, nil)
	consErr := NewConsistencyError(MsgEmptyConflictGroup, nil)

	assert.True(t, IsConsistencyError(consErr))
	assert.True(t, IsConsistencyError(fmt.Errorf("signal: %w", consErr)))
	assert.False(t, IsConsistencyError(cfgErr))
	assert.False(t, IsConsistencyError(nil))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeConfiguration, CodeOf(NewConfigurationError("x", nil)))
	assert.Equal(t, ErrorCode(""), CodeOf(assert.AnError))
}

func TestRouteStep_Mean(t *testing.T) {
	assert.Equal(t, 0.0, RouteStep{}.Mean())
	assert.Equal(t, 2.5, RouteStep{ProcessingTime: &ProcessingTime{Mean: 2.5}}.Mean())
}
