package validation

import "strings"

// FieldError is one failed rule. Field is empty for request-level rules.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Outcome is the ordered result of running every rule against a request.
type Outcome struct {
	Errors []FieldError
}

// Valid reports whether no rule failed.
func (o Outcome) Valid() bool {
	return len(o.Errors) == 0
}

// Messages returns the error messages in rule order.
func (o Outcome) Messages() []string {
	msgs := make([]string, 0, len(o.Errors))
	for _, e := range o.Errors {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

// Joined returns every message separated by "; ".
func (o Outcome) Joined() string {
	return strings.Join(o.Messages(), "; ")
}

// OnlyRequestLevel reports whether every failure is request-level, i.e. the
// request is syntactically fine and was rejected by business policy alone.
func (o Outcome) OnlyRequestLevel() bool {
	if o.Valid() {
		return false
	}
	for _, e := range o.Errors {
		if e.Field != "" {
			return false
		}
	}
	return true
}

// HasField reports whether any failure is attributed to field.
func (o Outcome) HasField(field string) bool {
	for _, e := range o.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}
