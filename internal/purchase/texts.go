package purchase

// Тексты для покупателя. Детали ошибок сюда не попадают.
const (
	InvalidTierText      = "Invalid booster package selected!"
	PaymentErrorText     = "Sorry, there was an error processing your payment. Please try again later."
	PaymentLinkErrorText = "Sorry, there was an error generating payment link. Please try again later."
	ThrottledText        = "You're making purchases too quickly. Please try again in a minute."
	DeclineReason        = "Payment declined. Please try again."
	PaymentButtonText    = "[AEON] Please process your purchase"

	paymentLinkTextFormat = "Great choice! You're about to purchase %s boosters for $%s\n" +
		"Click the button below to proceed with payment:"
)
