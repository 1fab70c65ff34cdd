package domain

// SubjectID is the authenticated caller identity (an email address). It is
// established by the identity layer before any core operation runs; the core
// treats it as an opaque, stable string.
type SubjectID string

// TripID is the identifier of a trip record. It is generated server-side on
// creation and is never accepted from a client for a new record.
type TripID string
