// Package domain defines the entities of the portfolio (projects, services,
// inquiries, visitor sessions and bug-bounty profiles) together with the
// repository interfaces the store package implements.
//
// Handlers and services depend on these interfaces only, so the sqlite
// implementation in the store package can be swapped for fakes in tests.
package domain
