package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlanOracle(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		wantPlan Plan
		wantErr  bool
	}{
		{
			name:     "defaults to anonymous",
			settings: map[string]any{},
			wantPlan: PlanAnonymous,
		},
		{
			name:     "premium",
			settings: map[string]any{"plan": "premium"},
			wantPlan: PlanPremium,
		},
		{
			name:     "free with samples",
			settings: map[string]any{"plan": "free", "sample_track_ids": []string{"s1"}},
			wantPlan: PlanFree,
		},
		{
			name:     "unknown plan rejected",
			settings: map[string]any{"plan": "gold"},
			wantErr:  true,
		},
		{
			name:     "wrong type rejected",
			settings: map[string]any{"plan": 42},
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := NewPlanOracle(tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPlan, o.Plan())
		})
	}
}

func TestPlanOracle_Entitlements(t *testing.T) {
	samples := []string{"sample-1", "sample-2"}
	tests := []struct {
		plan         string
		playSample   bool
		playPremium  bool
		autoplay     bool
		skipManually bool
	}{
		{plan: "anonymous", playSample: true},
		{plan: "free", playSample: true},
		{plan: "premium", playSample: true, playPremium: true, autoplay: true, skipManually: true},
	}
	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			o, err := NewPlanOracle(map[string]any{
				"plan":             tt.plan,
				"sample_track_ids": samples,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.playSample, o.CanPlay("sample-1"))
			assert.Equal(t, tt.playPremium, o.CanPlay("deep-cut"))
			assert.Equal(t, tt.autoplay, o.CanAutoplay())
			assert.Equal(t, tt.skipManually, o.CanSkipManually())
		})
	}
}

func TestPlanOracle_ExplainRestriction(t *testing.T) {
	anon, err := NewPlanOracle(map[string]any{"sample_track_ids": []string{"s1"}})
	require.NoError(t, err)
	assert.Empty(t, anon.ExplainRestriction("s1"))
	assert.Equal(t, "Sign up to access more content", anon.ExplainRestriction("locked"))

	free, err := NewPlanOracle(map[string]any{"plan": "free"})
	require.NoError(t, err)
	assert.Equal(t, "Subscribe to unlock this premium track", free.ExplainRestriction("locked"))

	premium, err := NewPlanOracle(map[string]any{"plan": "premium"})
	require.NoError(t, err)
	assert.Empty(t, premium.ExplainRestriction("anything"))
}
