package provider

// ModelType names a kind of data a fetcher returns.
type ModelType string

const (
	// ModelTreasurySeries is a daily constant-maturity treasury yield series.
	// Param "symbol" is a maturity label ("3M", "2Y", "5Y", "10Y", "30Y").
	// Data is models.RateSeries.
	ModelTreasurySeries ModelType = "TreasurySeries"

	// ModelPolicyRate is the daily effective federal funds rate.
	// Data is models.RateSeries.
	ModelPolicyRate ModelType = "PolicyRate"
)

// AllModels lists every model type in display order.
func AllModels() []ModelType {
	return []ModelType{ModelTreasurySeries, ModelPolicyRate}
}
