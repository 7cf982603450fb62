package orders

import "strings"

// Status is the canonical order lifecycle state. Raw backend strings are parsed once,
// when an order is decoded, and code past that point only compares Status values.
type Status int

const (
	StatusUnknown Status = iota
	StatusPending
	StatusConfirmed
	StatusShipping
	StatusDelivered
	StatusCompleted
	StatusCancelled
	StatusFailed
)

var statusNames = map[Status]string{
	StatusPending:   "pending",
	StatusConfirmed: "confirmed",
	StatusShipping:  "shipping",
	StatusDelivered: "delivered",
	StatusCompleted: "completed",
	StatusCancelled: "cancelled",
	StatusFailed:    "failed",
}

var statusAliases = map[string]Status{
	"pending":    StatusPending,
	"processing": StatusPending,
	"confirmed":  StatusConfirmed,
	"shipping":   StatusShipping,
	"shipped":    StatusShipping,
	"delivered":  StatusDelivered,
	"completed":  StatusCompleted,
	"cancelled":  StatusCancelled,
	"canceled":   StatusCancelled,
	"failed":     StatusFailed,
}

// ParseStatus maps a backend status string to a Status, ignoring case and surrounding
// spaces. Anything unrecognized is StatusUnknown.
func ParseStatus(raw string) Status {
	return statusAliases[strings.ToLower(strings.TrimSpace(raw))]
}

// String is the wire form sent back to the backend.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	*s = ParseStatus(string(text))
	return nil
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

type Meta struct {
	ColorClass string `json:"color_class"`
	Icon       string `json:"icon"`
	Label      string `json:"label"`
}

var defaultMeta = Meta{ColorClass: "bg-gray-100 text-gray-800", Icon: "help-circle", Label: "Unknown"}

var statusMeta = map[Status]Meta{
	StatusPending:   {ColorClass: "bg-yellow-100 text-yellow-800", Icon: "clock", Label: "Pending"},
	StatusConfirmed: {ColorClass: "bg-blue-100 text-blue-800", Icon: "check-circle", Label: "Confirmed"},
	StatusShipping:  {ColorClass: "bg-indigo-100 text-indigo-800", Icon: "truck", Label: "Shipping"},
	StatusDelivered: {ColorClass: "bg-teal-100 text-teal-800", Icon: "package", Label: "Delivered"},
	StatusCompleted: {ColorClass: "bg-green-100 text-green-800", Icon: "check-double", Label: "Completed"},
	StatusCancelled: {ColorClass: "bg-red-100 text-red-800", Icon: "x-circle", Label: "Cancelled"},
	StatusFailed:    {ColorClass: "bg-rose-100 text-rose-800", Icon: "alert-triangle", Label: "Failed"},
}

func (s Status) Meta() Meta {
	if m, ok := statusMeta[s]; ok {
		return m
	}
	return defaultMeta
}

// StatusMeta returns display metadata for a raw status string. It never fails; unknown
// strings get the neutral default.
func StatusMeta(raw string) Meta {
	return ParseStatus(raw).Meta()
}

type Action int

const (
	ActionCancel Action = iota
	ActionConfirmReceipt
	ActionReview
)

func (a Action) String() string {
	switch a {
	case ActionCancel:
		return "cancel"
	case ActionConfirmReceipt:
		return "confirm_receipt"
	case ActionReview:
		return "review"
	default:
		return "unknown"
	}
}

// Actions is a set of Action values.
type Actions uint8

func (as Actions) Has(a Action) bool {
	return as&(1<<a) != 0
}

func (as Actions) List() []Action {
	var list []Action
	for _, a := range []Action{ActionCancel, ActionConfirmReceipt, ActionReview} {
		if as.Has(a) {
			list = append(list, a)
		}
	}
	return list
}

func (as Actions) Strings() []string {
	names := []string{}
	for _, a := range as.List() {
		names = append(names, a.String())
	}
	return names
}

func actionSet(actions ...Action) Actions {
	var as Actions
	for _, a := range actions {
		as |= 1 << a
	}
	return as
}

// Actions lists what the shopper may do with an order in status s.
func (s Status) Actions() Actions {
	switch s {
	case StatusPending:
		return actionSet(ActionCancel)
	case StatusDelivered:
		return actionSet(ActionConfirmReceipt)
	case StatusCompleted:
		return actionSet(ActionReview)
	default:
		return 0
	}
}

func PermittedActions(raw string) Actions {
	return ParseStatus(raw).Actions()
}
