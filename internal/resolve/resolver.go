// Package resolve implements best-effort cross-reference lookups across
// the independent upstream collections. The upstream schemas disagree on
// field names and identifier types, so every lookup probes a documented
// list of field-name variants and compares identifiers as strings.
// A miss yields the zero value, never an error.
package resolve

import "github.com/aquagrid/approval-engine/internal/domain"

// Probe orders. First present variant wins.
var (
	meterAccountFields = []string{"account", "accountNumber", "account_number", "userAccount", "user_account"}
	adminNameFields    = []string{"name", "fullName", "full_name", "username"}
	customerNameFields = []string{"name", "fullName", "full_name", "customerName", "customer_name"}
)

// Meter finds the meter linked to a customer account. Matching coerces
// both sides to strings so a numeric account id still matches its
// string twin in the meter collection.
func Meter(accountID string, meters []domain.Record) (domain.Record, bool) {
	if accountID == "" {
		return nil, false
	}
	for _, m := range meters {
		if v, ok := m.Field(meterAccountFields...); ok && domain.LooseEqual(v, accountID) {
			return m, true
		}
	}
	return nil, false
}

// Zone resolves a zone id through an area record. A nested zone object
// on the area takes precedence over the area's own zone-id field.
func Zone(areaID string, areas []domain.Record) (string, bool) {
	if areaID == "" {
		return "", false
	}
	for _, a := range areas {
		if v, ok := a.Field("id", "areaId", "area_id"); !ok || !domain.LooseEqual(v, areaID) {
			continue
		}
		if z, ok := a.Sub("zone"); ok {
			if id := z.String("id", "zoneId", "zone_id"); id != "" {
				return id, true
			}
		}
		if id := a.String("zoneId", "zone_id"); id != "" {
			return id, true
		}
		return "", false
	}
	return "", false
}

// AdminName resolves an administrator's display name, or "-" when the
// admin cannot be found. The dash is the portal's placeholder for an
// unknown submitter.
func AdminName(adminID string, admins []domain.Record) string {
	if adminID == "" {
		return "-"
	}
	for _, a := range admins {
		if v, ok := a.Field("id", "adminId", "admin_id"); ok && domain.LooseEqual(v, adminID) {
			if name := a.String(adminNameFields...); name != "" {
				return name
			}
			return "-"
		}
	}
	return "-"
}

// CustomerName reads a customer's display name from a user record,
// degrading to "Unknown Customer".
func CustomerName(customer domain.Record) string {
	if customer == nil {
		return "Unknown Customer"
	}
	if name := customer.String(customerNameFields...); name != "" {
		return name
	}
	return "Unknown Customer"
}

// Link is the ephemeral result of resolving a customer's meter and zone.
// Missing pieces stay empty; callers omit empty fields rather than fail.
type Link struct {
	ZoneID           string
	MeterNumber      string
	MeterStatus      string
	MeterDiameter    string
	MeterInstallDate string
}

// BuildLink resolves the meter by account and, when the customer record
// has no zone of its own, walks area → zone.
func BuildLink(accountID, areaID string, areas, meters []domain.Record) Link {
	var link Link
	if m, ok := Meter(accountID, meters); ok {
		link.MeterNumber = m.String("meterNumber", "meter_number", "serial", "number")
		link.MeterStatus = m.String("status", "meterStatus", "meter_status")
		link.MeterDiameter = m.String("diameter", "meterDiameter", "meter_diameter")
		link.MeterInstallDate = m.String("installDate", "install_date", "installedAt", "installed_at")
	}
	if zone, ok := Zone(areaID, areas); ok {
		link.ZoneID = zone
	}
	return link
}
