package federalreserve

// ---------------------------------------------------------------------------
// NY Fed Markets API response types.
// ---------------------------------------------------------------------------

// nyfedRatesResponse wraps the reference rates (EFFR, OBFR, SOFR).
type nyfedRatesResponse struct {
	RefRates []nyfedRefRate `json:"refRates"`
}

// nyfedRefRate is a single reference rate entry. Rates are in percent.
type nyfedRefRate struct {
	EffectiveDate    string  `json:"effectiveDate"`
	Type             string  `json:"type,omitempty"`
	PercentRate      float64 `json:"percentRate"`
	TargetRateFrom   float64 `json:"targetRateFrom,omitempty"`
	TargetRateTo     float64 `json:"targetRateTo,omitempty"`
	VolumeInBillions float64 `json:"volumeInBillions,omitempty"`
}
