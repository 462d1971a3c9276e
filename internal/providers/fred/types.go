package fred

type fredObservationsResponse struct {
	ObservationStart string            `json:"observation_start"`
	ObservationEnd   string            `json:"observation_end"`
	Units            string            `json:"units"`
	Count            int               `json:"count"`
	Observations     []fredObservation `json:"observations"`
	ErrorCode        int               `json:"error_code,omitempty"`
	ErrorMessage     string            `json:"error_message,omitempty"`
}

type fredObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"` // "." marks a missing day
}

type fredSeriesResponse struct {
	Seriess []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"seriess"`
}
