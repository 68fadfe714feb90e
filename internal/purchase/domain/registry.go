package domain

const (
	// GamePurchased es el tipo del evento de dominio en el event log.
	GamePurchased = "GamePurchased"

	// PurchaseCreated es el tipo del evento de outbox que acaba en la cola de pagos.
	PurchaseCreated = "purchase.created"

	PurchaseAggregate = "purchase"
)
