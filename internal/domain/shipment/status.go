package shipment

import (
	"strings"
	"time"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/id"
)

// Status is the lifecycle state of a shipment.
type Status string

const (
	StatusCreated       Status = "CREATED"
	StatusReceivedCN    Status = "RECEIVED_CN"
	StatusConsolidation Status = "CONSOLIDATION"
	StatusInTransit     Status = "IN_TRANSIT"
	StatusArrivedUA     Status = "ARRIVED_UA"
	StatusOnUAWarehouse Status = "ON_UA_WAREHOUSE"
	StatusDelivered     Status = "DELIVERED"
	StatusArchived      Status = "ARCHIVED"
)

// Statuses lists every state in completion order.
var Statuses = []Status{
	StatusCreated,
	StatusReceivedCN,
	StatusConsolidation,
	StatusInTransit,
	StatusArrivedUA,
	StatusOnUAWarehouse,
	StatusDelivered,
	StatusArchived,
}

var statusLabels = map[Status]string{
	StatusCreated:       "Awaiting receipt",
	StatusReceivedCN:    "China warehouse",
	StatusConsolidation: "China warehouse (consolidation)",
	StatusInTransit:     "In transit",
	StatusArrivedUA:     "Arrived in Ukraine",
	StatusOnUAWarehouse: "Ukraine warehouse",
	StatusDelivered:     "Delivered",
	StatusArchived:      "Archive",
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Order returns the 1-based completion rank of s, 0 when unknown.
func (s Status) Order() int {
	for i, st := range Statuses {
		if st == s {
			return i + 1
		}
	}
	return 0
}

// Label returns the canonical location text for s.
func (s Status) Label() string {
	return statusLabels[s]
}

// IsTerminal reports whether automatic side effects stop at s.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusArchived
}

// isUnset treats a fresh shipment the same as one with no status at all.
func (s Status) isUnset() bool {
	return s == "" || s == StatusCreated
}

// DefaultTransitDays is the door-to-door duration per mode used to project ETA.
var DefaultTransitDays = map[DeliveryType]int{
	DeliveryAir:        12,
	DeliverySea:        45,
	DeliveryRail:       30,
	DeliveryMultimodal: 35,
}

// Policy holds the tunable constants of the state machine.
type Policy struct {
	TransitDays map[DeliveryType]int
	// OriginLabel overrides the RECEIVED_CN location text when set.
	OriginLabel string
}

// DefaultPolicy returns the built-in durations.
func DefaultPolicy() Policy {
	days := make(map[DeliveryType]int, len(DefaultTransitDays))
	for k, v := range DefaultTransitDays {
		days[k] = v
	}
	return Policy{TransitDays: days}
}

// TransitDaysFor returns the duration for dt; unknown modes use the air duration.
func (p Policy) TransitDaysFor(dt DeliveryType) int {
	if d, ok := p.TransitDays[dt]; ok {
		return d
	}
	if d, ok := p.TransitDays[DeliveryAir]; ok {
		return d
	}
	return DefaultTransitDays[DeliveryAir]
}

// LocationFor returns the canonical location of st under this policy.
func (p Policy) LocationFor(st Status) string {
	if st == StatusReceivedCN && p.OriginLabel != "" {
		return p.OriginLabel
	}
	return st.Label()
}

// Edit is one operator change to the status-bearing fields of a shipment.
// A nil pointer leaves the field untouched. An empty date string clears it.
type Edit struct {
	Status      *Status
	Location    *string
	Description string

	ReceivedAtWarehouse *string
	SentAt              *string
	DeliveredAt         *string
	ETA                 *string
}

// IsZero reports whether the edit changes nothing.
func (e Edit) IsZero() bool {
	return e.Status == nil && e.Location == nil &&
		e.ReceivedAtWarehouse == nil && e.SentAt == nil && e.DeliveredAt == nil && e.ETA == nil
}

// StateMachine applies edits and their derived side effects.
type StateMachine struct {
	policy Policy
}

// NewStateMachine creates a state machine with the given policy.
func NewStateMachine(p Policy) *StateMachine {
	if p.TransitDays == nil {
		p.TransitDays = DefaultPolicy().TransitDays
	}
	return &StateMachine{policy: p}
}

type dateChange struct {
	set   bool
	value *time.Time
}

// ParseDate accepts "2006-01-02" or RFC 3339. Blank input means "cleared" and yields nil.
func ParseDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	return nil, apperror.NewFieldValidation(field, "invalid date").WithDetail("value", s)
}

func parseChange(field string, s *string) (dateChange, error) {
	if s == nil {
		return dateChange{}, nil
	}
	t, err := ParseDate(field, *s)
	if err != nil {
		return dateChange{}, err
	}
	return dateChange{set: true, value: t}, nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// Apply mutates s according to e and returns the history entries it produced.
// All input is validated first; on error s is left untouched.
func (m *StateMachine) Apply(s *Shipment, e Edit, now time.Time) ([]StatusHistoryEntry, error) {
	received, err := parseChange("receivedAtWarehouse", e.ReceivedAtWarehouse)
	if err != nil {
		return nil, err
	}
	sent, err := parseChange("sentAt", e.SentAt)
	if err != nil {
		return nil, err
	}
	delivered, err := parseChange("deliveredAt", e.DeliveredAt)
	if err != nil {
		return nil, err
	}
	eta, err := parseChange("eta", e.ETA)
	if err != nil {
		return nil, err
	}
	if e.Status != nil && !e.Status.IsValid() {
		return nil, apperror.NewFieldValidation("status", "invalid status").WithDetail("value", string(*e.Status))
	}

	now = now.UTC()
	prev := s.Status
	terminal := prev.IsTerminal()
	direct := e.Status != nil && *e.Status != prev

	var history []StatusHistoryEntry
	record := func(desc string) {
		history = append(history, StatusHistoryEntry{
			ID:          id.New(),
			ShipmentID:  s.ID,
			Status:      s.Status,
			Location:    s.Location,
			Description: desc,
			CreatedAt:   now,
		})
	}

	if received.set {
		changed := !sameTime(s.ReceivedAtWarehouse, received.value)
		s.ReceivedAtWarehouse = received.value
		// Clearing the date never rolls the status back.
		if changed && received.value != nil && !terminal && !direct {
			switch {
			case s.Status.isUnset():
				s.Status = StatusReceivedCN
				s.Location = m.policy.LocationFor(StatusReceivedCN)
				if e.Location != nil {
					s.Location = *e.Location
				}
				record(e.Description)
			case s.Status == StatusReceivedCN && e.Location == nil:
				s.Location = m.policy.LocationFor(StatusReceivedCN)
			}
		}
	}

	if sent.set {
		changed := !sameTime(s.SentAt, sent.value)
		s.SentAt = sent.value
		if changed && sent.value != nil && !terminal && !eta.set {
			projected := sent.value.AddDate(0, 0, m.policy.TransitDaysFor(s.DeliveryType))
			s.ETA = &projected
		}
	}

	if eta.set {
		s.ETA = eta.value
	}
	if delivered.set {
		s.DeliveredAt = delivered.value
	}

	switch {
	case direct:
		s.Status = *e.Status
		s.Location = m.policy.LocationFor(s.Status)
		if e.Location != nil {
			s.Location = *e.Location
		}
		if s.Status == StatusDelivered && s.DeliveredAt == nil && !terminal {
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			s.DeliveredAt = &today
		}
		record(e.Description)
	case e.Location != nil:
		s.Location = *e.Location
	}

	return history, nil
}
