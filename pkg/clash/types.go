package clash

import (
	"errors"
	"fmt"
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Sentinel errors returned by the Manager.
var (
	ErrAlreadyRunning    = errors.New("clash: detection already running")
	ErrRuleNotFound      = errors.New("clash: rule not found")
	ErrDuplicateRule     = errors.New("clash: duplicate rule id")
	ErrClashNotFound     = errors.New("clash: clash not found")
	ErrInvalidTransition = errors.New("clash: invalid status transition")
	ErrModelNotFound     = errors.New("clash: model not found")
)

// Severity grades a clash.
type Severity string

const (
	SeverityHard    Severity = "hard"
	SeveritySoft    Severity = "soft"
	SeverityWarning Severity = "warning"
)

// Status tracks a clash through review. Detection only ever creates clashes
// in StatusNew; every other status is set by a user.
type Status string

const (
	StatusNew      Status = "new"
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
	StatusApproved Status = "approved"
	StatusIgnored  Status = "ignored"
)

// Statuses lists every status in review order.
var Statuses = []Status{StatusNew, StatusActive, StatusResolved, StatusApproved, StatusIgnored}

var transitions = map[Status][]Status{
	StatusNew:      {StatusActive, StatusResolved, StatusApproved, StatusIgnored},
	StatusActive:   {StatusResolved, StatusApproved, StatusIgnored},
	StatusResolved: {StatusActive},
	StatusApproved: {StatusActive},
	StatusIgnored:  {StatusActive},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether a clash in status s may move to next.
// Moving to the same status is always allowed and is a no-op.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return next.Valid()
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseStatus converts a user-supplied string to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("clash: unknown status %q", s)
	}
	return st, nil
}

// CheckType selects whether a rule looks for hard overlaps or clearance
// violations.
type CheckType string

const (
	CheckHard CheckType = "hard"
	CheckSoft CheckType = "soft"
)

// Severity returns the severity assigned to clashes found under c.
func (c CheckType) Severity() Severity {
	if c == CheckSoft {
		return SeveritySoft
	}
	return SeverityHard
}

// ElementRef identifies one element in one model.
type ElementRef struct {
	ModelID   string `json:"model_id"`
	ExpressID int    `json:"express_id"`
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
}

func (r ElementRef) String() string {
	if r.Name != "" {
		return fmt.Sprintf("%s:%d %s (%s)", r.ModelID, r.ExpressID, r.Type, r.Name)
	}
	return fmt.Sprintf("%s:%d %s", r.ModelID, r.ExpressID, r.Type)
}

func (r ElementRef) same(o ElementRef) bool {
	return r.ModelID == o.ModelID && r.ExpressID == o.ExpressID
}

// Clash is one detected pair of intersecting (or too-close) elements.
type Clash struct {
	ID        string     `json:"id"`
	RuleID    string     `json:"rule_id"`
	RuleName  string     `json:"rule_name"`
	Severity  Severity   `json:"severity"`
	Status    Status     `json:"status"`
	ElementA  ElementRef `json:"element_a"`
	ElementB  ElementRef `json:"element_b"`
	Point     v3.Vec     `json:"point"`
	Volume    float64    `json:"volume"`
	Distance  float64    `json:"distance"`
	Tolerance float64    `json:"tolerance"`
	Note      string     `json:"note,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Stats summarises the stored clashes.
type Stats struct {
	Total      int
	ByStatus   map[Status]int
	BySeverity map[Severity]int
}
