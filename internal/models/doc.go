// Package models defines the core domain models for the settlement engine.
//
// # Models
//
//   - Settlement: the financial record for one paid order (fee, net payout, payout timing)
//   - Wholesaler: a selling tenant; settlements are owned by exactly one wholesaler
//   - Principal: the authenticated caller supplied by the identity provider
//   - Scope: the tenant-visibility boundary resolved for a principal
//
// # Design Principles
//
// 1. **Integer money**: amounts are integer currency units, never floats
// 2. **Stored vs. effective state**: Settlement.Status is what is persisted; the
// status shown to callers is derived by the calculator package at read time
// 3. **ID strings for relationships**: settlements reference orders and
// wholesalers by ID, never by pointer
// 4. **Closed scope variant**: every storage read and write takes a Scope, so
// tenant filtering is never branched on roles at the call site
package models
