// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities so the domain layer stays free of
// ORM tags; each model converts to and from its entity with ToDomain and
// a <Name>ModelFromDomain constructor.
//
// Tables:
//   - plans, permissions, plan_permissions (catalog)
//   - subscriptions (billing)
//   - users (identity)
package models
