package models

import "github.com/google/uuid"

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All returns every persisted model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Subcategory{},
		&Product{},
		&Cart{},
		&Order{},
		&Rating{},
		&Review{},
		&Address{},
		&Notification{},
		&SearchLog{},
		&OutboxEvent{},
	}
}
