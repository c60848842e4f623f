// Package plan defines subscription tiers and the plan/feature matrix.
package plan

// Unlimited is the sentinel for maxAgents and monthlyMessageQuota meaning no cap.
const Unlimited = -1

// TierID identifies a subscription tier.
type TierID string

const (
	TierFree       TierID = "free"
	TierStarter    TierID = "starter"
	TierPro        TierID = "pro"
	TierEnterprise TierID = "enterprise"
	TierWhiteLabel TierID = "white_label"
	TierCustom     TierID = "custom"
)

// Tier describes what a subscription tier may do.
type Tier struct {
	ID                  TierID   `json:"id"`
	MaxAgents           int      `json:"max_agents"` // Unlimited = no cap
	AllowedModelTypes   []string `json:"allowed_model_types"`
	AllowedFeatures     []string `json:"allowed_features"`
	MonthlyMessageQuota int      `json:"monthly_message_quota"` // Unlimited = no cap
	UpgradeTo           TierID   `json:"upgrade_to,omitempty"`  // suggested next tier
	RequestsPerSecond   float64  `json:"requests_per_second"`
	Burst               int      `json:"burst"`
}

// AllowsModel reports whether the tier permits the given model type.
func (t *Tier) AllowsModel(modelType string) bool {
	for _, m := range t.AllowedModelTypes {
		if m == modelType {
			return true
		}
	}
	return false
}

// AllowsFeature reports whether the tier permits the given feature tag.
func (t *Tier) AllowsFeature(feature string) bool {
	for _, f := range t.AllowedFeatures {
		if f == feature {
			return true
		}
	}
	return false
}

// Matrix is the immutable tier lookup table, built once at startup.
type Matrix struct {
	tiers map[TierID]*Tier
}

// NewMatrix builds a matrix from the given tiers.
func NewMatrix(tiers []Tier) *Matrix {
	m := &Matrix{tiers: make(map[TierID]*Tier, len(tiers))}
	for i := range tiers {
		m.tiers[tiers[i].ID] = &tiers[i]
	}
	return m
}

// Get returns the tier, falling back to free for unknown IDs so that a
// missing or corrupt subscription row degrades to the most restrictive plan.
func (m *Matrix) Get(id TierID) *Tier {
	if t, ok := m.tiers[id]; ok {
		return t
	}
	return m.tiers[TierFree]
}
