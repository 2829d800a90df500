package domain

// NavEntry is one navigation affordance. An empty Privilege means any
// authenticated user may see it.
type NavEntry struct {
	Key              string `json:"key"`
	Label            string `json:"label"`
	Href             string `json:"href"`
	Privilege        string `json:"privilege,omitempty"`
	RequiresLocation bool   `json:"requires_location,omitempty"`
}

// DefaultNavigation is the static route-to-privilege map of the portal.
var DefaultNavigation = []NavEntry{
	{Key: "home", Label: "Home", Href: "/dashboard"},
	{Key: "patients", Label: "Patients", Href: "/dashboard/patients", Privilege: "View Patients"},
	{Key: "registration", Label: "Register Patient", Href: "/dashboard/patients/new", Privilege: "Add Patients", RequiresLocation: true},
	{Key: "appointments", Label: "Appointments", Href: "/dashboard/appointments", Privilege: "View Appointments"},
	{Key: "observations", Label: "Observations", Href: "/dashboard/observations", Privilege: "View Observations"},
	{Key: "lab-orders", Label: "Lab Orders", Href: "/dashboard/lab-orders", Privilege: "View Orders", RequiresLocation: true},
	{Key: "pharmacy", Label: "Pharmacy", Href: "/dashboard/pharmacy", Privilege: "Dispense Medication", RequiresLocation: true},
	{Key: "billing", Label: "Billing", Href: "/dashboard/billing", Privilege: "View Bills"},
	{Key: "stock", Label: "Stock Management", Href: "/dashboard/stock", Privilege: "View Stock Items"},
	{Key: "reports", Label: "Reports", Href: "/dashboard/reports", Privilege: "View Reports"},
	{Key: "admin", Label: "Administration", Href: "/dashboard/admin", Privilege: "View Administration Functions"},
}

// VisibleNavigation returns the entries the snapshot may see, in order.
// Nothing is shown until the snapshot has loaded and is authenticated.
func VisibleNavigation(s SessionSnapshot, entries []NavEntry) []NavEntry {
	out := make([]NavEntry, 0, len(entries))
	if !s.Loaded || !s.Authenticated {
		return out
	}
	for _, e := range entries {
		if e.Privilege != "" && !s.HasPrivilege(e.Privilege) {
			continue
		}
		if e.RequiresLocation && !s.HasLocation() {
			continue
		}
		out = append(out, e)
	}
	return out
}
