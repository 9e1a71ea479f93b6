package model

// All lists every model managed by migrations.
func All() []any {
	return []any{
		&Event{},
		&Participant{},
		&TeamSplitSession{},
		&EventMessage{},
		&PushSubscription{},
	}
}
