package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&SiteConfig{},
		&Story{},
		&Event{},
		&EventRSVP{},
		&VolunteerApplication{},
		&MentorshipApplication{},
		&PartnerApplication{},
		&Campaign{},
		&Donation{},
		&NewsletterSubscriber{},
		&CommunityQA{},
		&BillingWebhookEvent{},
	}
}
