// Package domain defines core data models and interfaces shared across the app.
// It contains plain types (contacts, call states, settings) and contracts
// (interfaces) only.
package domain
