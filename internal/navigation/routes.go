package navigation

import (
	"campusconnect/internal/guard"
	"campusconnect/internal/models"
)

const (
	PathRoot      = "/"
	PathLogin     = "/login"
	PathDashboard = "/dashboard"
)

type Route struct {
	Path   string
	Name   string
	Icon   string
	Policy guard.Policy
	// Track records the route in the recently accessed list when it renders.
	Track bool
}

var (
	public    = guard.Policy{}
	guestOnly = guard.Policy{GuestOnly: true}
	signedIn  = guard.Policy{RequireAuth: true}
	staff     = guard.Policy{RequireAuth: true, AllowedRoles: []models.UserRole{models.UserRoleAdmin, models.UserRoleFaculty}}
)

// DefaultRoutes is the portal's route table.
func DefaultRoutes() []Route {
	return []Route{
		{Path: PathLogin, Name: "Login", Policy: guestOnly},
		{Path: "/register", Name: "Register", Policy: guestOnly},
		{Path: "/forgot-password", Name: "Forgot Password", Policy: public},
		{Path: "/reset-password", Name: "Reset Password", Policy: public},

		{Path: PathDashboard, Name: "Dashboard", Policy: signedIn},
		{Path: "/profile", Name: "Profile", Policy: signedIn},
		{Path: "/admin", Name: "Admin", Policy: staff},
		{Path: "/feed", Name: "Feed", Policy: signedIn},

		{Path: "/rides", Name: "Ride Sharing", Icon: "Car", Policy: signedIn, Track: true},
		{Path: "/events", Name: "Events", Icon: "Calendar", Policy: signedIn, Track: true},
		{Path: "/marketplace", Name: "Marketplace", Icon: "ShoppingBag", Policy: signedIn, Track: true},
		{Path: "/lost-found", Name: "Lost & Found", Icon: "Search", Policy: signedIn, Track: true},
		{Path: "/jobs", Name: "Jobs", Icon: "Briefcase", Policy: signedIn, Track: true},
		{Path: "/complaints", Name: "Complaints", Icon: "MessageSquare", Policy: signedIn, Track: true},

		{Path: "/clubs", Name: "Clubs", Policy: signedIn},
		{Path: "/venue-booking", Name: "Venue Booking", Policy: signedIn},
		{Path: "/messages", Name: "Messages", Policy: signedIn},
	}
}
