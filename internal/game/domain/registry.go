package domain

// Tipos de evento del catálogo. Los que viajan por la cola usan los mismos nombres.
const (
	GameStarted = "GameStarted"
	GameQueued  = "GameQueued"

	GameFetched                        = "GameFetched"
	GameNotFound                       = "GameNotFound"
	GameSearchExecuted                 = "GameSearchExecuted"
	GamePopularRequested               = "GamePopularRequested"
	GameRecommendationsFallbackPopular = "GameRecommendationsFallbackPopular"
	GameRecommendationsGenerated       = "GameRecommendationsGenerated"

	// ProcessedSuffix se añade al tipo original al registrar un mensaje consumido.
	ProcessedSuffix = "Processed"
)

// ProcessedType devuelve "<eventType>Processed".
func ProcessedType(eventType string) string {
	return eventType + ProcessedSuffix
}
