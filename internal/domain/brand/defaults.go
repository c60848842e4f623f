package brand

// DefaultRegistry returns the built-in brand table. Order matters: exact
// subdomains are listed before the broader platform domains they share a
// suffix with.
func DefaultRegistry() *Registry {
	return NewRegistry([]Descriptor{
		{
			ID:           "athena",
			Name:         "Athena Legacy Care",
			MatchDomains: []string{"athena.saintvisionai.com"},
			Theme: map[string]string{
				"primary": "#2dd4bf",
				"mode":    "light",
			},
			DefaultSkillsets: []string{"healthcare", "scheduling"},
			AllowedFeatures:  []string{"scheduling", "voice_enabled", "document_review", "compliance_tracking"},
			ComplianceTags:   []string{"HIPAA"},
		},
		{
			ID:           "ebytech",
			Name:         "EbyTech Finance",
			MatchDomains: []string{"ebytech.saintvisionai.com"},
			Theme: map[string]string{
				"primary": "#f59e0b",
				"mode":    "dark",
			},
			DefaultSkillsets: []string{"finance", "lending"},
			AllowedFeatures:  []string{"web_research", "crm_routing", "payment_processing", "compliance_tracking"},
			ComplianceTags:   []string{"SOC2", "FINRA"},
		},
		{
			ID:           "svtlegal",
			Name:         "SVT Legal",
			MatchDomains: []string{"svtlegal.com", "legal.saintvisionai.com"},
			Theme: map[string]string{
				"primary": "#1e3a8a",
				"mode":    "dark",
			},
			DefaultSkillsets: []string{"legal", "contracts"},
			AllowedFeatures:  []string{"document_review", "web_research", "scheduling", "compliance_tracking"},
			ComplianceTags:   []string{"SOC2"},
		},
		{
			ID:           "svtteach",
			Name:         "SVT Teach",
			MatchDomains: []string{"svtteach.ai"},
			Theme: map[string]string{
				"primary": "#10b981",
				"mode":    "light",
			},
			DefaultSkillsets: []string{"education"},
			AllowedFeatures:  []string{"web_research", "scheduling", "document_review"},
		},
		{
			ID:           "partnertech",
			Name:         "PartnerTech.ai",
			MatchDomains: []string{"partnertech.ai", "crm.partnertech.ai"},
			Theme: map[string]string{
				"primary": "#3b82f6",
				"mode":    "dark",
			},
			DefaultSkillsets: []string{"sales", "crm"},
			AllowedFeatures:  []string{"crm_routing", "voice_enabled", "web_research", "scheduling", "payment_processing"},
		},
		{
			ID:           "saintvision",
			Name:         "SaintVision AI",
			MatchDomains: []string{"saintvisionai.com", "saintsal.ai"},
			Theme: map[string]string{
				"primary": "#eab308",
				"mode":    "dark",
			},
			DefaultSkillsets: []string{"general"},
			AllowedFeatures:  []string{FeatureAll},
		},
	}, "saintvision")
}
