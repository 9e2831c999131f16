package models

// EventsRequest is the query contract for the events endpoint.
type EventsRequest struct {
	Symbol string `query:"symbol" validate:"required,min=1,max=10"`
}

// AnomaliesRequest is the query contract for the raw anomalies endpoint.
type AnomaliesRequest struct {
	Symbol    string `query:"symbol" validate:"required,min=1,max=10"`
	Timeframe string `query:"timeframe" default:"daily" validate:"oneof=daily weekly"`
}
