// Package main is the entry point of rollcall, the admin backend for staff
// accounts and registered persons. It serves the REST API with fiber, stores
// records through gorm and dispatches onboarding notifications.
package main
