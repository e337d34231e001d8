// Package entitlement decides what the current identity may do with
// playback. The engine only ever asks; auth and billing stay behind
// whatever produced the plan.
package entitlement

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// Plan is the subscription level of the current identity.
type Plan string

const (
	PlanAnonymous Plan = "anonymous" // No account: sample tracks only
	PlanFree      Plan = "free"      // Account, no subscription: sample tracks only
	PlanPremium   Plan = "premium"   // Full library, autoplay, skipping
)

// Settings configures a PlanOracle. Decoded from loose config maps.
type Settings struct {
	Plan           string   `yaml:"plan" mapstructure:"plan" default:"anonymous" validate:"oneof=anonymous free premium"`
	SampleTrackIDs []string `yaml:"sample_track_ids" mapstructure:"sample_track_ids"`
}

// PlanOracle answers entitlement questions from a plan plus a sample-track
// allowlist that everyone can play.
type PlanOracle struct {
	plan    Plan
	samples map[string]bool
}

// NewPlanOracle builds an oracle from loose settings.
func NewPlanOracle(settings map[string]any) (*PlanOracle, error) {
	var s Settings
	if err := mapstructure.Decode(settings, &s); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&s); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(s); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	zlog.Debug().Msgf("entitlement: plan=%s samples=%d", s.Plan, len(s.SampleTrackIDs))

	samples := make(map[string]bool, len(s.SampleTrackIDs))
	for _, id := range s.SampleTrackIDs {
		samples[id] = true
	}
	return &PlanOracle{plan: Plan(s.Plan), samples: samples}, nil
}

// Plan returns the oracle's plan.
func (o *PlanOracle) Plan() Plan {
	return o.plan
}

// CanPlay reports whether the identity may play the track. Subscribers play
// anything; everyone else is limited to the sample allowlist.
func (o *PlanOracle) CanPlay(trackID string) bool {
	if o.plan == PlanPremium {
		return true
	}
	return o.samples[trackID]
}

// CanAutoplay reports whether playback may continue on its own at track end.
func (o *PlanOracle) CanAutoplay() bool {
	return o.plan == PlanPremium
}

// CanSkipManually reports whether next/previous/loop controls are allowed.
func (o *PlanOracle) CanSkipManually() bool {
	return o.plan == PlanPremium
}

// ExplainRestriction returns the user-facing reason a track is locked, or
// "" when it is playable.
func (o *PlanOracle) ExplainRestriction(trackID string) string {
	if o.CanPlay(trackID) {
		return ""
	}
	if o.plan == PlanAnonymous {
		return "Sign up to access more content"
	}
	return "Subscribe to unlock this premium track"
}
