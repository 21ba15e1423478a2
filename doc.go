// Package newsletter implements the core of a multi-tenant newsletter
// platform: token issuance and verification, tenant resolution, and a scoped
// data-access layer shared by every entity.
//
// Tokens:
//   - TokenService signs two classes of JWT with independent secrets: access
//     tokens (short lived, bearer credential on API calls) and refresh tokens
//     (long lived, delivered only through an HttpOnly cookie). Verification
//     surfaces expired, malformed, and missing tokens as distinct error kinds
//     so the refresh flow can re-issue on expiry but reject on tampering.
//     There is no server-side revocation list; a rotated refresh token stays
//     cryptographically valid until its natural expiry.
//
// Tenant access:
//   - The bearer guard (middleware/jwtware) attaches the token's identity to
//     the request context. The API-key guard (middleware/apikeyware) resolves
//     an opaque key from a newsletter type record into a TenantContext for
//     public widget endpoints. A request passes through exactly one guard and
//     handlers must not assume the other's context shape.
//
// Data access:
//   - ScopedRepository composes soft delete, active-only filtering, and
//     pagination over a Bun-backed base repository once, instead of
//     per-entity. Deletion is always logical: deleted_at is set and the row
//     disappears from every default query. Bulk subscriber import dedupes
//     against active rows and inserts the remainder in a single transaction.
package newsletter
