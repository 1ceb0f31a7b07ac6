package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNextDueFor(t *testing.T) {
	ref := date(2024, time.August, 15)
	tests := []struct {
		name string
		plan domain.MaintenancePlan
		want *time.Time
	}{
		{"inactive", domain.MaintenancePlan{EligibleMonths: []int{2, 8}}, nil},
		{"no months", domain.MaintenancePlan{HasRecurringService: true}, nil},
		{"boundary wraps", domain.MaintenancePlan{HasRecurringService: true, EligibleMonths: []int{2, 7}}, ptrTime(date(2025, time.March, 15))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextDueFor(&tt.plan, ref, 15))
		})
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestClampAnchorDay(t *testing.T) {
	assert.Equal(t, 15, clampAnchorDay(0))
	assert.Equal(t, 15, clampAnchorDay(29))
	assert.Equal(t, 1, clampAnchorDay(1))
	assert.Equal(t, 28, clampAnchorDay(28))
}

func TestUseCaseObserverOrNoop(t *testing.T) {
	assert.IsType(t, NoopUseCaseObserver{}, useCaseObserverOrNoop(nil))
	assert.IsType(t, NoopUseCaseObserver{}, useCaseObserverOrNoop([]UseCaseObserver{nil}))

	obs := NewZapUseCaseObserver(zap.NewNop())
	assert.Equal(t, obs, useCaseObserverOrNoop([]UseCaseObserver{nil, obs}))
	assert.IsType(t, NoopUseCaseObserver{}, NewZapUseCaseObserver(nil))
}

func TestZapUseCaseObserver_LevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	obs := NewZapUseCaseObserver(zap.New(core))
	ctx := context.Background()

	var err error
	func() {
		defer observe(ctx, obs, "generate-job", time.Now().UTC(), map[string]any{"location": "loc-1"}, &err)
	}()
	err = errors.New("boom")
	func() {
		defer observe(ctx, obs, "generate-job", time.Now().UTC(), nil, &err)
	}()

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "service", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	assert.Equal(t, "generate-job", fields["use_case"])
	assert.Equal(t, true, fields["success"])
	assert.Equal(t, "loc-1", fields["location"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, false, entries[1].ContextMap()["success"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}
