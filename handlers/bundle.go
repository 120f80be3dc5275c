package handlers

// HandlerBundle groups all endpoint handlers for route registration.
type HandlerBundle struct {
	Auth         *AuthHandler
	Admin        *AdminHandler
	Catalog      *CatalogHandler
	Booking      *BookingHandler
	Review       *ReviewHandler
	Subscription *SubscriptionHandler
	Offer        *OfferHandler
	Job          *JobHandler
	Intake       *IntakeHandler
	Content      *ContentHandler
	Stats        *StatsHandler
}
