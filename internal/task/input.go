package task

// DraftInput is a draft as it arrives from a form, flag set or JSON body.
// Field names follow the snapshot format.
type DraftInput struct {
	Description    string `json:"task"`
	Priority       string `json:"priority,omitempty"`
	Date           string `json:"date,omitempty"`
	Time           string `json:"time,omitempty"`
	IsRecurring    bool   `json:"isRecurring,omitempty"`
	RecurringUntil string `json:"recurringUntil,omitempty"`
}

// Parse converts in to a validated Draft. Every failure is a *ValidationError.
func (in DraftInput) Parse() (Draft, error) {
	priority, err := ParsePriority(in.Priority)
	if err != nil {
		return Draft{}, err
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return Draft{}, &ValidationError{Field: "date", Reason: err.Error()}
	}
	at, err := ParseOptionalTime(in.Time)
	if err != nil {
		return Draft{}, &ValidationError{Field: "time", Reason: err.Error()}
	}
	d := Draft{
		Description: in.Description,
		Priority:    priority,
		Date:        date,
		Time:        at,
		IsRecurring: in.IsRecurring,
	}
	if in.IsRecurring {
		until, err := ParseDate(in.RecurringUntil)
		if err != nil {
			return Draft{}, &ValidationError{Field: "recurringUntil", Reason: err.Error()}
		}
		d.RecurringUntil = until
	}
	return d, d.Validate()
}
