package domain

// TripHeader is the listing read model: just enough to render a trip picker.
type TripHeader struct {
	ID   TripID
	Name *string
}

// Role is the access tier a subject holds on a trip.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleEditor Role = "EDITOR"
	RoleViewer Role = "VIEWER"
	RoleNone   Role = "NONE"
)
