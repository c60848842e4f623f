package plan

import "github.com/saintvisionai/platform/internal/domain/agent"

// Feature tags recognised by the platform.
const (
	FeatureWebResearch        = "web_research"
	FeatureScheduling         = "scheduling"
	FeatureCRMRouting         = "crm_routing"
	FeatureVoiceEnabled       = "voice_enabled"
	FeatureDocumentReview     = "document_review"
	FeaturePaymentProcessing  = "payment_processing"
	FeatureComplianceTracking = "compliance_tracking"
)

// DefaultMatrix returns the built-in plan/feature matrix.
func DefaultMatrix() *Matrix {
	return NewMatrix([]Tier{
		{
			ID:                  TierFree,
			MaxAgents:           1,
			AllowedModelTypes:   []string{agent.ModelGPT},
			AllowedFeatures:     []string{FeatureWebResearch, FeatureScheduling},
			MonthlyMessageQuota: 100,
			UpgradeTo:           TierStarter,
			RequestsPerSecond:   1,
			Burst:               5,
		},
		{
			ID:                  TierStarter,
			MaxAgents:           3,
			AllowedModelTypes:   []string{agent.ModelGPT},
			AllowedFeatures:     []string{FeatureWebResearch, FeatureScheduling, FeatureCRMRouting},
			MonthlyMessageQuota: 2000,
			UpgradeTo:           TierPro,
			RequestsPerSecond:   5,
			Burst:               20,
		},
		{
			ID:                TierPro,
			MaxAgents:         10,
			AllowedModelTypes: []string{agent.ModelGPT, agent.ModelAzureCognitive},
			AllowedFeatures: []string{
				FeatureWebResearch, FeatureScheduling, FeatureCRMRouting,
				FeatureVoiceEnabled, FeatureDocumentReview,
			},
			MonthlyMessageQuota: 20000,
			UpgradeTo:           TierEnterprise,
			RequestsPerSecond:   20,
			Burst:               60,
		},
		{
			ID:                TierEnterprise,
			MaxAgents:         Unlimited,
			AllowedModelTypes: []string{agent.ModelGPT, agent.ModelAzureCognitive, agent.ModelDual},
			AllowedFeatures: []string{
				FeatureWebResearch, FeatureScheduling, FeatureCRMRouting,
				FeatureVoiceEnabled, FeatureDocumentReview,
				FeaturePaymentProcessing, FeatureComplianceTracking,
			},
			MonthlyMessageQuota: Unlimited,
			UpgradeTo:           TierWhiteLabel,
			RequestsPerSecond:   50,
			Burst:               200,
		},
		{
			ID:                TierWhiteLabel,
			MaxAgents:         Unlimited,
			AllowedModelTypes: []string{agent.ModelGPT, agent.ModelAzureCognitive, agent.ModelDual},
			AllowedFeatures: []string{
				FeatureWebResearch, FeatureScheduling, FeatureCRMRouting,
				FeatureVoiceEnabled, FeatureDocumentReview,
				FeaturePaymentProcessing, FeatureComplianceTracking,
			},
			MonthlyMessageQuota: Unlimited,
			RequestsPerSecond:   50,
			Burst:               200,
		},
		{
			ID:                TierCustom,
			MaxAgents:         Unlimited,
			AllowedModelTypes: []string{agent.ModelGPT, agent.ModelAzureCognitive, agent.ModelDual},
			AllowedFeatures: []string{
				FeatureWebResearch, FeatureScheduling, FeatureCRMRouting,
				FeatureVoiceEnabled, FeatureDocumentReview,
				FeaturePaymentProcessing, FeatureComplianceTracking,
			},
			MonthlyMessageQuota: Unlimited,
			RequestsPerSecond:   100,
			Burst:               400,
		},
	})
}
