package model

// ZoneKey is a canonical semantic zone/section key. The taxonomy is closed:
// twelve canonical keys plus ZoneUnknown.
type ZoneKey string

const (
	ZoneTitlePage       ZoneKey = "title_page"
	ZoneSynopsis        ZoneKey = "synopsis"
	ZoneObjectives      ZoneKey = "objectives"
	ZoneEndpoints       ZoneKey = "endpoints"
	ZoneEligibility     ZoneKey = "eligibility"
	ZoneDesign          ZoneKey = "design"
	ZoneInterventions   ZoneKey = "interventions"
	ZoneSafety          ZoneKey = "safety"
	ZoneStatistics      ZoneKey = "statistics"
	ZoneEthics          ZoneKey = "ethics"
	ZoneInformedConsent ZoneKey = "informed_consent"
	ZoneReferences      ZoneKey = "references"
	ZoneUnknown         ZoneKey = "unknown"
)

// CanonicalZones lists the twelve canonical zone keys in stable order.
// ZoneUnknown is deliberately excluded: it is the absence of a zone, not a
// member of any zone set.
func CanonicalZones() []ZoneKey {
	return []ZoneKey{
		ZoneTitlePage, ZoneSynopsis, ZoneObjectives, ZoneEndpoints,
		ZoneEligibility, ZoneDesign, ZoneInterventions, ZoneSafety,
		ZoneStatistics, ZoneEthics, ZoneInformedConsent, ZoneReferences,
	}
}

// IsCanonicalZone reports whether k is one of the twelve canonical keys
func IsCanonicalZone(k ZoneKey) bool {
	for _, z := range CanonicalZones() {
		if z == k {
			return true
		}
	}
	return false
}

// SignalSource records where a signal set or classification came from
type SignalSource string

const (
	SourceExplicit SignalSource = "explicit" // Recipe carried first-class signals
	SourceAuto     SignalSource = "auto"     // Derived from title / query templates
	SourceManual   SignalSource = "manual"   // Human override recorded downstream
)

// ClassificationResult is the outcome of classifying one anchor or heading.
// It is ephemeral: persistence is the caller's responsibility.
type ClassificationResult struct {
	Zone           ZoneKey      `json:"zone"`
	Confidence     float64      `json:"confidence"` // 0..1
	MatchedSignals []string     `json:"matched_signals,omitempty"`
	Source         SignalSource `json:"source"`
}

// Unclassified is the defined "no classification" outcome. It is not an
// error: callers must handle it explicitly.
func Unclassified() ClassificationResult {
	return ClassificationResult{Zone: ZoneUnknown, Confidence: 0, Source: SourceAuto}
}
