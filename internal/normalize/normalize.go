// Package normalize maps raw collection records onto the common
// QueueItem shape. Each normalizer owns its kind's eligibility
// predicate and its kind-specific summary format. Normalization is
// pure, tolerates arbitrarily incomplete records, and never panics —
// missing cross-references degrade to placeholder values.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aquagrid/approval-engine/internal/domain"
	"github.com/aquagrid/approval-engine/internal/resolve"
)

// Context carries the reference collections the normalizers resolve
// against. Missing collections are treated as empty, not as errors.
type Context struct {
	Customers []domain.Record
	Admins    []domain.Record
	Areas     []domain.Record
	Zones     []domain.Record
	Meters    []domain.Record
}

var (
	statusFields      = []string{"status", "state"}
	activeStatFields  = []string{"status", "activeStatus", "active_status", "state"}
	submittedAtFields = []string{"createdAt", "created_at", "submittedAt", "submitted_at", "date"}
	accountFields     = []string{"account", "accountNumber", "account_number", "userAccount", "user_account"}
	submitterFields   = []string{"createdBy", "created_by", "submittedBy", "submitted_by", "adminId", "admin_id"}
)

func statusIs(r domain.Record, fields []string, want string) bool {
	return strings.EqualFold(strings.TrimSpace(r.String(fields...)), want)
}

// Consumption normalizes a metered consumption submission. Eligible iff
// status is "pending" (case-insensitive); returns false otherwise.
func Consumption(raw domain.Record, ctx Context) (domain.QueueItem, bool) {
	if !statusIs(raw, statusFields, "pending") {
		return domain.QueueItem{}, false
	}

	id, _ := raw.Int64("id", "consumptionId", "consumption_id")
	sourceID := strconv.FormatInt(id, 10)

	customer := findCustomer(raw, ctx.Customers)
	billMonth := raw.String("billMonth", "bill_month", "month")

	item := domain.QueueItem{
		ID:            domain.ItemID(domain.KindConsumption, sourceID),
		Kind:          domain.KindConsumption,
		SourceID:      sourceID,
		RecordID:      id,
		Status:        domain.StatusPending,
		SubmittedBy:   resolve.AdminName(raw.String(submitterFields...), ctx.Admins),
		SubmittedAt:   raw.Time(submittedAtFields...),
		Summary:       fmt.Sprintf("%s - %s", billMonth, resolve.CustomerName(customer)),
		SecondaryInfo: fmt.Sprintf("%s m³", volume(raw)),
		OldSnapshot:   previousSnapshot(raw),
		NewSnapshot:   newSnapshot(raw),
	}
	return item, true
}

// ScoringRuleset normalizes a zone-scoring ruleset draft. The record
// kind carries no author field, so SubmittedBy is always "-" and no
// resolution is attempted.
func ScoringRuleset(raw domain.Record) (domain.QueueItem, bool) {
	if !statusIs(raw, statusFields, "pending") {
		return domain.QueueItem{}, false
	}

	id, _ := raw.Int64("id", "rulesetId", "ruleset_id")
	sourceID := strconv.FormatInt(id, 10)

	summary := raw.String("name", "title")
	if summary == "" {
		summary = fmt.Sprintf("Ruleset #%s", sourceID)
	}

	count := 0
	if params, ok := raw.Slice("parameters", "params", "criteria"); ok {
		count = len(params)
	}

	item := domain.QueueItem{
		ID:            domain.ItemID(domain.KindScoringRuleset, sourceID),
		Kind:          domain.KindScoringRuleset,
		SourceID:      sourceID,
		RecordID:      id,
		Status:        domain.StatusPending,
		SubmittedBy:   "-",
		SubmittedAt:   raw.Time(submittedAtFields...),
		Summary:       summary,
		SecondaryInfo: pluralize(count, "parameter"),
		OldSnapshot:   previousSnapshot(raw),
		NewSnapshot:   newSnapshot(raw),
	}
	return item, true
}

// CustomerActivation normalizes an activation request. Eligible iff the
// record's active-status field (checked across name variants) is
// "inactive". Activation records are keyed by account string when one
// is present; the numeric RecordID is then 0, a sentinel telling the
// dispatcher to mutate by account rather than by id.
func CustomerActivation(raw domain.Record, ctx Context) (domain.QueueItem, bool) {
	if !statusIs(raw, activeStatFields, "inactive") {
		return domain.QueueItem{}, false
	}

	account := raw.String(accountFields...)
	var sourceID string
	var recordID int64
	if account != "" {
		sourceID = account
	} else {
		recordID, _ = raw.Int64("id", "userId", "user_id")
		sourceID = strconv.FormatInt(recordID, 10)
	}

	snapshot := newSnapshot(raw)
	link := resolve.BuildLink(account, raw.String("areaId", "area_id", "area"), ctx.Areas, ctx.Meters)
	mergeLink(snapshot, link)

	item := domain.QueueItem{
		ID:            domain.ItemID(domain.KindCustomerActivation, sourceID),
		Kind:          domain.KindCustomerActivation,
		SourceID:      sourceID,
		RecordID:      recordID,
		Account:       account,
		Status:        domain.StatusInactive,
		SubmittedBy:   resolve.AdminName(raw.String(submitterFields...), ctx.Admins),
		SubmittedAt:   raw.Time(append([]string{"registeredAt", "registered_at", "requestDate", "request_date"}, submittedAtFields...)...),
		Summary:       resolve.CustomerName(raw),
		SecondaryInfo: raw.String("category", "customerType", "customer_type", "type"),
		OldSnapshot:   previousSnapshot(raw),
		NewSnapshot:   snapshot,
	}
	return item, true
}

// findCustomer locates the submitting customer: by userId against the
// customer's id first, falling back to userAccount against the
// customer's account field. Both comparisons are string-coerced.
func findCustomer(raw domain.Record, customers []domain.Record) domain.Record {
	if userID, ok := raw.Field("userId", "user_id", "customerId", "customer_id"); ok {
		for _, c := range customers {
			if v, found := c.Field("id", "userId", "user_id"); found && domain.LooseEqual(v, userID) {
				return c
			}
		}
	}
	if userAccount, ok := raw.Field("userAccount", "user_account", "account"); ok {
		for _, c := range customers {
			if v, found := c.Field(accountFields...); found && domain.LooseEqual(v, userAccount) {
				return c
			}
		}
	}
	return nil
}

// volume parses the consumed volume from its numeric or string form,
// defaulting to 0 when absent or malformed. Decimal keeps meter
// readings exact; no float formatting drift in the summary.
func volume(raw domain.Record) decimal.Decimal {
	v, ok := raw.Field("consumption", "volume", "consumedVolume", "consumed_volume")
	if !ok {
		return decimal.Zero
	}
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(n)); err == nil {
			return d
		}
	}
	return decimal.Zero
}

// previousSnapshot extracts the prior record state. Nil means the
// change-request is a creation, which the diff renders without a
// changed/unchanged distinction.
func previousSnapshot(raw domain.Record) domain.Record {
	if old, ok := raw.Sub("previous", "oldData", "old_data", "before", "publishedVersion", "published_version"); ok {
		return old
	}
	return nil
}

// newSnapshot extracts the proposed state: an explicit changes object
// when present, else the record itself. Always a copy — mergeLink
// writes into the snapshot, and the raw record belongs to the shared
// collection cache, which no normalizer may edit in place.
func newSnapshot(raw domain.Record) domain.Record {
	if next, ok := raw.Sub("changes", "newData", "new_data", "after"); ok {
		return next.Clone()
	}
	return raw.Clone()
}

func mergeLink(snapshot domain.Record, link resolve.Link) {
	if snapshot == nil {
		return
	}
	set := func(key, value string) {
		if value != "" {
			snapshot[key] = value
		}
	}
	set("zoneId", link.ZoneID)
	set("meterNumber", link.MeterNumber)
	set("meterStatus", link.MeterStatus)
	set("meterDiameter", link.MeterDiameter)
	set("meterInstallDate", link.MeterInstallDate)
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
