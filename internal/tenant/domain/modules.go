package domain

// Module is a feature module that can be enabled per tenant. Required
// modules cannot be disabled.
type Module struct {
	Name        string
	Label       string
	Description string
	Required    bool
}

// AvailableModules is the closed registry of feature modules.
var AvailableModules = map[string]Module{
	"bookings": {
		Name:        "bookings",
		Label:       "Booking Management",
		Description: "Appointment and reservation scheduling",
		Required:    true,
	},
	"customers": {
		Name:        "customers",
		Label:       "Customer Management",
		Description: "Customer database, profiles and history",
		Required:    true,
	},
	"communications": {
		Name:        "communications",
		Label:       "Communications",
		Description: "SMS, email notifications and messaging",
		Required:    true,
	},
	"staff": {
		Name:        "staff",
		Label:       "Staff Management",
		Description: "Staff members, scheduling and availability",
	},
	"services": {
		Name:        "services",
		Label:       "Service Catalog",
		Description: "Service offerings, pricing and packages",
	},
	"payments": {
		Name:        "payments",
		Label:       "Payment Processing",
		Description: "Payment processing, invoicing and billing",
	},
	"resources": {
		Name:        "resources",
		Label:       "Resource Management",
		Description: "Rooms, equipment and asset tracking",
	},
}

// defaultModulesByBusiness seeds the enabled-module set from the business
// type at registration time.
var defaultModulesByBusiness = map[string][]string{
	BusinessSalon:      {"staff", "services"},
	BusinessClinic:     {"staff", "services", "resources"},
	BusinessGym:        {"staff", "resources"},
	BusinessSpa:        {"staff", "services", "resources"},
	BusinessStudio:     {"staff", "services"},
	BusinessRestaurant: {"resources"},
	BusinessCustom:     {},
}

// DefaultModules returns the module map seeded for a new tenant of the
// given business type. Required modules are always enabled.
func DefaultModules(businessType string) map[string]any {
	modules := make(map[string]any, len(AvailableModules))
	for name, module := range AvailableModules {
		modules[name] = module.Required
	}
	for _, name := range defaultModulesByBusiness[businessType] {
		modules[name] = true
	}
	return modules
}

// ValidateModules checks an enabled-module map against the registry.
func ValidateModules(modules map[string]any) error {
	for name := range modules {
		if _, ok := AvailableModules[name]; !ok {
			return ErrUnknownModule
		}
	}
	for name, module := range AvailableModules {
		if !module.Required {
			continue
		}
		enabled, ok := modules[name].(bool)
		if ok && !enabled {
			return ErrRequiredModule
		}
	}
	return nil
}
