// internal/matching/profile.go
package matching

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"advisor-matching/internal/common/errors"
)

var (
	// ErrProfileMissing means the founder/advisor record exists but has no profile row.
	ErrProfileMissing = errors.Sentinel(errors.ErrCodeProfileMissing)
	// ErrProfileNotFound means no active founder/advisor record exists for the ID.
	ErrProfileNotFound = errors.Sentinel(errors.ErrCodeProfileNotFound)
)

// NormalizeFounder maps a raw founder profile into FounderFacts. Only a nil profile
// fails; every absent field normalizes to its zero value.
func NormalizeFounder(p *FounderProfile) (FounderFacts, error) {
	if p == nil {
		return FounderFacts{}, ErrProfileMissing
	}

	return FounderFacts{
		Sector:           clean(p.Sector),
		Stage:            normalizeStage(clean(p.Stage)),
		Location:         clean(p.Location),
		CurrentChallenge: clean(p.CurrentChallenge),
		WinDefinition:    clean(p.WinDefinition),
	}, nil
}

// NormalizeAdvisor maps a raw advisor profile into AdvisorFacts.
func NormalizeAdvisor(p *AdvisorProfile) (AdvisorFacts, error) {
	if p == nil {
		return AdvisorFacts{}, ErrProfileMissing
	}

	return AdvisorFacts{
		Expertise:            expertiseSet(p.Expertise),
		ExperienceLevel:      normalizeLevel(clean(p.ExperienceLevel)),
		Timezone:             clean(p.Timezone),
		ChallengePreference:  clean(p.ChallengePreference),
		WeeklyAvailableHours: weeklyHours(p.Availability),
	}, nil
}

func clean(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func canonicalToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

func normalizeStage(s string) Stage {
	switch v := canonicalToken(s); v {
	case "early", "earlystage":
		return StageEarlyStage
	case "pre_seed", "preseed", "ideation":
		return StageIdea
	case "scaling", "scaleup", "scale_up":
		return StageScale
	default:
		return Stage(v)
	}
}

func normalizeLevel(s string) ExperienceLevel {
	switch v := canonicalToken(s); v {
	case "c_level", "clevel", "exec":
		return LevelExecutive
	case "intermediate", "mid_level":
		return LevelMid
	default:
		return ExperienceLevel(v)
	}
}

// expertiseSet lower-cases, trims and de-duplicates, keeping a stable order.
func expertiseSet(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

type availabilitySlot struct {
	Day   string `json:"day,omitempty"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// weeklyHours sums the slot durations of an availability schedule. The schedule is
// either {"monday":[{"start":"09:00","end":"10:30"}]} or a flat list of slots with a
// "day" field. Returns nil when the schedule is absent or unreadable.
func weeklyHours(raw []byte) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var slots []availabilitySlot

	var byDay map[string][]availabilitySlot
	if err := json.Unmarshal(raw, &byDay); err == nil {
		for _, daySlots := range byDay {
			slots = append(slots, daySlots...)
		}
	} else if err := json.Unmarshal(raw, &slots); err != nil {
		return nil
	}

	total := 0.0
	for _, s := range slots {
		start, err := time.Parse("15:04", strings.TrimSpace(s.Start))
		if err != nil {
			continue
		}
		end, err := time.Parse("15:04", strings.TrimSpace(s.End))
		if err != nil {
			continue
		}
		if end.After(start) {
			total += end.Sub(start).Hours()
		}
	}
	return &total
}
