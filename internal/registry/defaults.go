package registry

import "github.com/ndrozdov/anchora/internal/model"

// DefaultConfig returns the built-in registry configuration for the three
// supported document types. A config file overrides it wholesale.
func DefaultConfig() *Config {
	return &Config{
		ZoneSets: map[model.DocType][]model.ZoneKey{
			model.DocTypeProtocol: model.CanonicalZones(),
			model.DocTypeICF: {
				model.ZoneTitlePage, model.ZoneObjectives, model.ZoneDesign,
				model.ZoneInterventions, model.ZoneSafety, model.ZoneEthics,
				model.ZoneInformedConsent, model.ZoneReferences,
			},
			model.DocTypeCSR: {
				model.ZoneTitlePage, model.ZoneSynopsis, model.ZoneObjectives,
				model.ZoneEndpoints, model.ZoneEligibility, model.ZoneDesign,
				model.ZoneInterventions, model.ZoneSafety, model.ZoneStatistics,
				model.ZoneEthics, model.ZoneReferences,
			},
		},
		Taxonomy: map[model.DocType][]TaxonomyNode{
			model.DocTypeProtocol: {
				{Section: model.ZoneTitlePage, Title: "Title page"},
				{Section: model.ZoneSynopsis, Title: "Synopsis"},
				{Section: model.ZoneObjectives, Title: "Objectives"},
				{Section: model.ZoneEndpoints, Parent: model.ZoneObjectives, Title: "Endpoints"},
				{Section: model.ZoneEligibility, Parent: model.ZoneDesign, Title: "Eligibility criteria"},
				{Section: model.ZoneDesign, Title: "Study design"},
				{Section: model.ZoneInterventions, Parent: model.ZoneDesign, Title: "Interventions"},
				{Section: model.ZoneSafety, Title: "Safety"},
				{Section: model.ZoneStatistics, Title: "Statistical methods"},
				{Section: model.ZoneEthics, Title: "Ethics"},
				{Section: model.ZoneInformedConsent, Parent: model.ZoneEthics, Title: "Informed consent"},
				{Section: model.ZoneReferences, Title: "References"},
			},
		},
		Aliases: map[model.DocType]map[string]model.ZoneKey{
			model.DocTypeProtocol: {
				"aims":               model.ZoneObjectives,
				"outcomes":           model.ZoneEndpoints,
				"outcome_measures":   model.ZoneEndpoints,
				"inclusion_criteria": model.ZoneEligibility,
				"exclusion_criteria": model.ZoneEligibility,
				"adverse_events":     model.ZoneSafety,
				"sample_size":        model.ZoneStatistics,
				"bibliography":       model.ZoneReferences,
			},
			model.DocTypeICF: {
				"consent": model.ZoneInformedConsent,
				"risks":   model.ZoneSafety,
			},
			model.DocTypeCSR: {
				"outcomes":       model.ZoneEndpoints,
				"adverse_events": model.ZoneSafety,
			},
		},
		Related: map[model.DocType][]RelatedPair{
			model.DocTypeProtocol: {
				{A: model.ZoneEndpoints, B: model.ZoneObjectives},
				{A: model.ZoneDesign, B: model.ZoneEligibility},
				{A: model.ZoneInterventions, B: model.ZoneSafety},
				{A: model.ZoneEndpoints, B: model.ZoneStatistics},
				{A: model.ZoneEthics, B: model.ZoneInformedConsent},
			},
			model.DocTypeCSR: {
				{A: model.ZoneEndpoints, B: model.ZoneObjectives},
				{A: model.ZoneEndpoints, B: model.ZoneStatistics},
			},
		},
	}
}

// DefaultRegistry builds the built-in registry. The defaults are known
// valid, so construction failure is a programming error.
func DefaultRegistry() *Registry {
	r, err := New(DefaultConfig())
	if err != nil {
		panic("registry: invalid built-in defaults: " + err.Error())
	}
	return r
}
