// internal/matching/scorers.go
package matching

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Criterion positions. Rationales and sub-scores are always stored in this order.
const (
	CriterionSector = iota
	CriterionTimezone
	CriterionStage
	CriterionAvailability
	CriterionExperience

	criterionCount
)

// CriterionNames are the display names, indexed by criterion position.
var CriterionNames = [criterionCount]string{"sector", "timezone", "stage", "availability", "experience"}

// Scorer evaluates one matching dimension. Scorers are pure.
type Scorer func(f FounderFacts, a AdvisorFacts) CriterionResult

// DefaultScorers returns the five scorers in criterion order.
func DefaultScorers() [criterionCount]Scorer {
	return [criterionCount]Scorer{
		ScoreSector,
		ScoreTimezone,
		ScoreStage,
		ScoreChallenge,
		ScoreExperience,
	}
}

// ==========================
// Sector
// ==========================

func ScoreSector(f FounderFacts, a AdvisorFacts) CriterionResult {
	sector := strings.ToLower(strings.TrimSpace(f.Sector))
	if sector == "" || len(a.Expertise) == 0 {
		return CriterionResult{Score: 0.0, Rationale: "no sector/expertise data"}
	}

	for _, e := range a.Expertise {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if e == sector || strings.Contains(e, sector) || strings.Contains(sector, e) {
			return CriterionResult{
				Score:     1.0,
				Rationale: fmt.Sprintf("advisor expertise %q covers the %s sector", e, sector),
			}
		}
	}

	return CriterionResult{
		Score:     0.3,
		Rationale: fmt.Sprintf("no direct %s expertise; partial credit for generalist advice", sector),
	}
}

// ==========================
// Timezone
// ==========================

type region struct {
	name     string
	keywords []string
}

// Checked in order: more specific regions come before the ones whose keywords they share
// (Europe/London is UK, America/Sao_Paulo is LATAM, Asia/Dubai is Middle East).
var regions = []region{
	{"UK", []string{"uk", "gmt", "bst", "london", "united kingdom", "england", "scotland", "wales", "britain", "europe london"}},
	{"Middle East", []string{"dubai", "riyadh", "doha", "tel aviv", "jerusalem", "israel", "uae", "saudi", "qatar", "gst", "asia dubai", "asia riyadh", "asia jerusalem"}},
	{"LATAM", []string{"sao paulo", "são paulo", "buenos aires", "mexico", "bogota", "santiago", "lima", "brazil", "argentina", "colombia", "chile", "peru", "brt", "latam", "latin america", "america sao paulo", "america mexico city"}},
	{"US", []string{"us", "usa", "united states", "america", "est", "edt", "cst", "cdt", "mst", "mdt", "pst", "pdt", "new york", "san francisco", "los angeles", "chicago", "boston", "seattle", "austin", "denver", "miami", "canada", "toronto"}},
	{"Europe", []string{"europe", "eu", "cet", "cest", "eet", "eest", "berlin", "paris", "amsterdam", "madrid", "lisbon", "rome", "stockholm", "warsaw", "dublin", "zurich", "germany", "france", "spain", "netherlands"}},
	{"Africa", []string{"africa", "lagos", "nairobi", "cairo", "johannesburg", "cape town", "nigeria", "kenya", "egypt", "wat", "eat", "cat", "sast"}},
	{"Oceania", []string{"australia", "sydney", "melbourne", "auckland", "new zealand", "aest", "aedt", "nzst", "pacific auckland"}},
	{"APAC", []string{"asia", "ist", "india", "singapore", "tokyo", "japan", "hong kong", "shanghai", "china", "seoul", "korea", "bangalore", "mumbai", "jakarta", "sgt", "jst", "kst", "hkt"}},
}

// padded lower-cases s and replaces every non letter/digit run with a single space so
// keywords can be matched on word boundaries.
func padded(s string) string {
	var b strings.Builder
	b.WriteByte(' ')
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	if !lastSpace {
		b.WriteByte(' ')
	}
	return b.String()
}

// regionOf returns the macro-region of a location or timezone string, or "".
func regionOf(s string) string {
	p := padded(s)
	for _, r := range regions {
		for _, kw := range r.keywords {
			if strings.Contains(p, " "+kw+" ") {
				return r.name
			}
		}
	}
	return ""
}

func ScoreTimezone(f FounderFacts, a AdvisorFacts) CriterionResult {
	loc := strings.TrimSpace(f.Location)
	tz := strings.TrimSpace(a.Timezone)
	if loc == "" || tz == "" {
		return CriterionResult{Score: 0.5, Rationale: "timezone information incomplete"}
	}

	founderRegion := regionOf(loc)
	advisorRegion := regionOf(tz)

	if founderRegion != "" && founderRegion == advisorRegion {
		return CriterionResult{Score: 1.0, Rationale: fmt.Sprintf("both in the %s region", founderRegion)}
	}

	if founderRegion == "" && advisorRegion == "" {
		l, t := strings.ToLower(loc), strings.ToLower(tz)
		if strings.Contains(l, t) || strings.Contains(t, l) {
			return CriterionResult{Score: 1.0, Rationale: fmt.Sprintf("matching location %q", tz)}
		}
	}

	return CriterionResult{
		Score:     0.6,
		Rationale: fmt.Sprintf("different regions (%s vs %s); moderate overlap assumed", orUnknown(founderRegion), orUnknown(advisorRegion)),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// ==========================
// Stage / experience fit
// ==========================

var stageFit = map[Stage][]ExperienceLevel{
	StageIdea:       {LevelJunior, LevelMid},
	StageMVP:        {LevelJunior, LevelMid, LevelSenior},
	StageEarlyStage: {LevelMid, LevelSenior},
	StageGrowth:     {LevelSenior, LevelExecutive},
	StageScale:      {LevelSenior, LevelExecutive},
}

var unknownStageFit = []ExperienceLevel{LevelMid}

func ScoreStage(f FounderFacts, a AdvisorFacts) CriterionResult {
	fits, known := stageFit[f.Stage]
	if !known {
		fits = unknownStageFit
	}

	stage := string(f.Stage)
	if !known {
		stage = "unknown"
	}
	level := string(a.ExperienceLevel)
	if level == "" {
		level = "unspecified"
	}

	for _, l := range fits {
		if l == a.ExperienceLevel {
			return CriterionResult{
				Score:     1.0,
				Rationale: fmt.Sprintf("%s advisor is a good fit for %s stage", level, stage),
			}
		}
	}

	return CriterionResult{
		Score:     0.4,
		Rationale: fmt.Sprintf("%s advisor is a weaker fit for %s stage", level, stage),
	}
}

// ==========================
// Challenge / availability
// ==========================

var challengeVocabulary = []string{
	"marketing",
	"product",
	"funding",
	"fundraising",
	"growth",
	"tech",
	"strategy",
	"sales",
	"hiring",
	"operations",
	"finance",
	"partnerships",
}

func challengeKeywords(text string) map[string]struct{} {
	text = strings.ToLower(text)
	out := make(map[string]struct{})
	for _, kw := range challengeVocabulary {
		if strings.Contains(text, kw) {
			out[kw] = struct{}{}
		}
	}
	return out
}

func ScoreChallenge(f FounderFacts, a AdvisorFacts) CriterionResult {
	suffix := availabilityNote(a.WeeklyAvailableHours)

	if strings.TrimSpace(f.CurrentChallenge) == "" || strings.TrimSpace(a.ChallengePreference) == "" {
		return CriterionResult{Score: 0.7, Rationale: "no challenge data; assuming a workable fit" + suffix}
	}

	fk := challengeKeywords(f.CurrentChallenge)
	ak := challengeKeywords(a.ChallengePreference)

	var shared []string
	for _, kw := range challengeVocabulary {
		_, inF := fk[kw]
		_, inA := ak[kw]
		if inF && inA {
			shared = append(shared, kw)
		}
	}

	denom := len(fk)
	if len(ak) > denom {
		denom = len(ak)
	}
	if denom < 1 {
		denom = 1
	}

	score := math.Max(float64(len(shared))/float64(denom), 0.3)

	if len(shared) == 0 {
		return CriterionResult{Score: score, Rationale: "no shared challenge focus" + suffix}
	}
	return CriterionResult{
		Score:     score,
		Rationale: fmt.Sprintf("shared challenge focus: %s (%d/%d)", strings.Join(shared, ", "), len(shared), denom) + suffix,
	}
}

func availabilityNote(hours *float64) string {
	if hours == nil {
		return ""
	}
	return fmt.Sprintf("; advisor offers %.1f h/week", *hours)
}

// ==========================
// Experience level
// ==========================

func ScoreExperience(_ FounderFacts, a AdvisorFacts) CriterionResult {
	switch a.ExperienceLevel {
	case LevelSenior, LevelExecutive:
		return CriterionResult{Score: 0.9, Rationale: fmt.Sprintf("%s-level advisor", a.ExperienceLevel)}
	case LevelMid:
		return CriterionResult{Score: 0.7, Rationale: "mid-level advisor"}
	default:
		return CriterionResult{Score: 0.5, Rationale: "junior or unspecified experience level"}
	}
}
