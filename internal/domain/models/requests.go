package models

// Requests for prediction HTTP endpoints. Defined in domain so the CLI can reuse the defaults.

type PredictRequest struct {
	Ticker string `query:"ticker" json:"ticker" default:"NKE" validate:"required,max=12"`
}

type PredictionHistoryRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,max=12"`
	Limit  int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=500"`
}
