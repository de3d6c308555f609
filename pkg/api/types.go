package api

import "time"

// Ticket statuses. A ticket moves Open → Scheduled → In Progress →
// Completed, with Awaiting Parts and Cancelled as side exits.
const (
	StatusOpen          = "Open"
	StatusScheduled     = "Scheduled"
	StatusInProgress    = "In Progress"
	StatusAwaitingParts = "Awaiting Parts"
	StatusCompleted     = "Completed"
	StatusCancelled     = "Cancelled"
)

// Ticket priorities.
const (
	PriorityRoutine  = "Routine"
	PriorityStandard = "Standard"
	PriorityUrgent   = "Urgent"
	PriorityCritical = "Critical"
)

// Ticket service categories.
const (
	CategoryEngine      = "Engine"
	CategoryBrakes      = "Brakes"
	CategoryTires       = "Tires"
	CategorySuspension  = "Suspension"
	CategoryElectrical  = "Electrical"
	CategoryMaintenance = "Maintenance"
	CategoryDiagnostics = "Diagnostics"
	CategoryBodywork    = "Bodywork"
	CategoryOther       = "Other"
)

// Ticket is a service ticket as the backend serializes it.
type Ticket struct {
	ID               int64      `json:"id"`
	CustomerTicketID int64      `json:"customer_ticket_id,omitempty"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Status           string     `json:"status"`
	Priority         string     `json:"priority"`
	Category         string     `json:"category"`
	CreatedBy        int64      `json:"created_by"`
	CreatedByEmail   string     `json:"created_by_email,omitempty"`
	CreatedByName    string     `json:"created_by_name,omitempty"`
	AssignedTo       *int64     `json:"assigned_to,omitempty"`
	AssignedToEmail  string     `json:"assigned_to_email,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`
	VehicleMake      string     `json:"vehicle_make,omitempty"`
	VehicleModel     string     `json:"vehicle_model,omitempty"`
	VehicleYear      int        `json:"vehicle_year,omitempty"`
	LicensePlate     string     `json:"license_plate,omitempty"`
	VIN              string     `json:"vin,omitempty"`
}

// NewTicket is the writable subset for ticket creation.
type NewTicket struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Priority     string `json:"priority,omitempty"`
	Category     string `json:"category,omitempty"`
	VehicleMake  string `json:"vehicle_make,omitempty"`
	VehicleModel string `json:"vehicle_model,omitempty"`
	VehicleYear  int    `json:"vehicle_year,omitempty"`
	LicensePlate string `json:"license_plate,omitempty"`
	VIN          string `json:"vin,omitempty"`
}

// TicketUpdate is a partial update; nil fields are left untouched.
type TicketUpdate struct {
	Status     *string `json:"status,omitempty"`
	Priority   *string `json:"priority,omitempty"`
	AssignedTo *int64  `json:"assigned_to,omitempty"`
}

// User is an account as the backend serializes it.
type User struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Role        string `json:"user_role"`
	IsActive    bool   `json:"is_active"`
}

// Registration is the payload for account creation. New accounts
// default to the customer role unless one is given.
type Registration struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Role        string `json:"user_role,omitempty"`
}

// UserUpdate is a partial account update (admin only).
type UserUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Role      *string `json:"user_role,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// Notification is a user-facing event tied to a ticket.
type Notification struct {
	ID        int64     `json:"id"`
	Recipient int64     `json:"recipient"`
	Ticket    *int64    `json:"ticket,omitempty"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardStats is the admin dashboard's counter set, computed
// server-side in one request.
type DashboardStats struct {
	TotalTickets      int `json:"total_tickets"`
	OpenTickets       int `json:"open_tickets"`
	InProgressTickets int `json:"in_progress_tickets"`
	TotalCustomers    int `json:"total_customers"`
	TotalTechnicians  int `json:"total_technicians"`
	TotalAdmins       int `json:"total_admins"`
}

// Page is the backend's pagination envelope for admin list endpoints.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
