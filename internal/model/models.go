package model

// AllModels lists every persisted model in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Permission{},
		&Role{},
		&User{},
		&Ministry{},
		&MinistryMember{},
		&Event{},
		&EventAttendee{},
		&Announcement{},
		&Message{},
		&Contribution{},
		&Donation{},
	}
}
