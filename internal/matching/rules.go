// Package matching computes heuristic compatibility scores between job
// postings and candidate profiles.
package matching

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/job-matcher/internal/types"
)

// MaxScore is the ceiling for a heuristic compatibility score.
const MaxScore = 5.0

// rule evaluates one scoring heuristic. It returns the score increment, a
// human-readable reason, and whether the rule fired. Each rule contributes a
// fixed increment regardless of how many attributes matched.
type rule func(job *types.Job, profile *types.CandidateProfile) (float64, string, bool)

// rules is the ordered, immutable rule set applied by Score.
var rules = []rule{
	skillOverlapRule,
	jobTypeAffinityRule,
	regionProximityRule,
	bilingualBonusRule,
	entryLevelUrgencyRule,
	careerGrowthBonusRule,
	exploringFieldsBonusRule,
}

// jobTypeKeywords maps a declared profile job type to keywords that signal it
// in a posting's title or description.
var jobTypeKeywords = map[string][]string{
	"warehouse":        {"warehouse", "logistics", "distribution"},
	"driver":           {"driver", "delivery", "transport", "cdl"},
	"retail":           {"retail", "store", "cashier", "merchandis"},
	"food_service":     {"restaurant", "food", "kitchen", "cook", "server", "barista"},
	"construction":     {"construction", "laborer", "carpent", "roofing"},
	"cleaning":         {"cleaning", "janitorial", "custodian", "housekeep"},
	"customer_service": {"customer service", "call center", "receptionist", "front desk"},
	"manufacturing":    {"manufacturing", "production", "assembly", "fabrication"},
	"healthcare":       {"healthcare", "medical", "caregiver", "clinic"},
	"agriculture":      {"farm", "agricultur", "harvest", "nursery"},
}

// growthKeywords signal advancement opportunity for build_career candidates.
var growthKeywords = []string{"growth", "advancement", "career path", "promote", "promotion", "training"}

// learningKeywords signal training/learning opportunity for exploring_fields candidates.
var learningKeywords = []string{"training", "learn", "mentorship", "apprentice"}

// entryLevelKeywords signal a posting open to candidates without experience.
var entryLevelKeywords = []string{"entry level", "entry-level", "no experience", "will train", "immediate start"}

// languageKeywords signal a language requirement in the posting.
var languageKeywords = []string{"spanish", "bilingual"}

// jobText returns the lowercased searchable text of a posting.
func jobText(job *types.Job) string {
	return strings.ToLower(job.Title + " " + job.Description + " " + job.Requirements)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// skillOverlapRule awards +1 when any profile skill overlaps a job skill,
// matching case-insensitively by substring in either direction.
func skillOverlapRule(job *types.Job, profile *types.CandidateProfile) (float64, string, bool) {
	matched := make([]string, 0)
	seen := make(map[string]bool)

	for _, ps := range profile.Skills {
		p := strings.ToLower(strings.TrimSpace(ps))
		if p == "" {
			continue
		}
		for _, js := range job.Skills {
			j := strings.ToLower(strings.TrimSpace(js))
			if j == "" {
				continue
			}
			if strings.Contains(p, j) || strings.Contains(j, p) {
				if !seen[js] {
					seen[js] = true
					matched = append(matched, js)
				}
			}
		}
	}

	if len(matched) == 0 {
		return 0, "", false
	}
	sort.Strings(matched)
	return 1, fmt.Sprintf("Skills match: %s", strings.Join(matched, ", ")), true
}

// jobTypeAffinityRule awards +1 when keywords for any declared job type appear
// in the posting's title or description.
func jobTypeAffinityRule(job *types.Job, profile *types.CandidateProfile) (float64, string, bool) {
	text := strings.ToLower(job.Title + " " + job.Description)

	for _, jt := range profile.JobTypes {
		key := strings.ToLower(strings.TrimSpace(jt))
		keywords, ok := jobTypeKeywords[key]
		if !ok {
			// Unknown declared types still match on the type name itself.
			keywords = []string{key}
		}
		if containsAny(text, keywords) {
			return 1, fmt.Sprintf("Matches your %s preference", strings.ReplaceAll(key, "_", " ")), true
		}
	}
	return 0, "", false
}

// regionProximityRule awards +1 when the posting's location names a city in
// the candidate's home region, derived from their zip code.
func regionProximityRule(job *types.Job, profile *types.CandidateProfile) (float64, string, bool) {
	if profile.ZipCode == "" || job.Location == "" {
		return 0, "", false
	}

	cities := regionCities(profile.ZipCode)
	if len(cities) == 0 {
		return 0, "", false
	}

	location := strings.ToLower(job.Location)
	for _, city := range cities {
		if strings.Contains(location, strings.ToLower(city)) {
			return 1, fmt.Sprintf("Located in your area (%s)", city), true
		}
	}
	return 0, "", false
}

// bilingualBonusRule awards +1 when the posting signals a language requirement
// and the candidate lists a matching language skill.
func bilingualBonusRule(job *types.Job, profile *types.CandidateProfile) (float64, string, bool) {
	if !containsAny(jobText(job), languageKeywords) {
		return 0, "", false
	}
	for _, skill := range profile.Skills {
		if containsAny(strings.ToLower(skill), languageKeywords) {
			return 1, "Bilingual skills are a plus for this job", true
		}
	}
	return 0, "", false
}

// entryLevelUrgencyRule awards +1 when an entry-level posting meets a
// candidate who needs a job as soon as possible.
func entryLevelUrgencyRule(job *types.Job, profile *types.CandidateProfile) (float64, string, bool) {
	if profile.CareerGoal != types.GoalNeedJobASAP {
		return 0, "", false
	}
	if !containsAny(jobText(job), entryLevelKeywords) {
		return 0, "", false
	}
	return 1, "Entry-level position for a quick start", true
}

// careerGrowthBonusRule awards a +0.5 soft bonus for build_career candidates
// when the posting signals growth or training opportunity.
func careerGrowthBonusRule(job *types.Job, profile *types.CandidateProfile) (float64, string, bool) {
	if profile.CareerGoal != types.GoalBuildCareer {
		return 0, "", false
	}
	if !containsAny(jobText(job), growthKeywords) {
		return 0, "", false
	}
	return 0.5, "Offers growth opportunities", true
}

// exploringFieldsBonusRule awards a +0.5 soft bonus for exploring_fields
// candidates when the posting signals training or learning opportunity.
func exploringFieldsBonusRule(job *types.Job, profile *types.CandidateProfile) (float64, string, bool) {
	if profile.CareerGoal != types.GoalExploringFields {
		return 0, "", false
	}
	if !containsAny(jobText(job), learningKeywords) {
		return 0, "", false
	}
	return 0.5, "Good opportunity to learn a new field", true
}
