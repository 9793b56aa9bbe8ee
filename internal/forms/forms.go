// Package forms validates submitted values against a fixed, ordered list of
// rules. Rules are plain values: a field, a predicate and the message shown
// when the predicate fails.
package forms

import (
	"net/http"
	"strings"
)

const (
	// NonField is the key used for errors that do not belong to one field
	NonField = "__all__"
)

type (
	Values map[string]string

	Rule struct {
		Field   string
		Message string
		Check   func(Values) bool
	}

	Result struct {
		Values Values
		Errors map[string]string
	}
)

// FromRequest reads the given fields from the request body (or query string
// for GET requests).
func FromRequest(r *http.Request, fields ...string) Values {
	v := make(Values, len(fields))
	for _, f := range fields {
		v[f] = r.FormValue(f)
	}
	return v
}

// Validate runs rules in order. Only the first failing rule of each field
// is reported, later rules for that field are skipped.
func Validate(v Values, rules []Rule) Result {
	res := Result{Values: v, Errors: map[string]string{}}
	for _, r := range rules {
		if _, failed := res.Errors[r.Field]; failed {
			continue
		}
		if !r.Check(v) {
			res.Errors[r.Field] = r.Message
		}
	}
	return res
}

func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

func (r Result) Error(field string) string {
	return r.Errors[field]
}

// Add records a failure for field unless one is already present
func (r *Result) Add(field, msg string) {
	if r.Errors == nil {
		r.Errors = map[string]string{}
	}
	if _, ok := r.Errors[field]; ok {
		return
	}
	r.Errors[field] = msg
}

// Without returns a copy of the values with the given fields blanked,
// used to re-render forms without echoing secrets.
func (v Values) Without(fields ...string) Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	for _, f := range fields {
		out[f] = ""
	}
	return out
}

func Required(field string) Rule {
	return Rule{
		Field:   field,
		Message: "This field is required.",
		Check: func(v Values) bool {
			return strings.TrimSpace(v[field]) != ""
		},
	}
}

func MaxLength(field string, n int, msg string) Rule {
	return Rule{
		Field:   field,
		Message: msg,
		Check: func(v Values) bool {
			return len([]rune(v[field])) <= n
		},
	}
}

func Equal(field, other string, msg string) Rule {
	return Rule{
		Field:   field,
		Message: msg,
		Check: func(v Values) bool {
			return v[field] == v[other]
		},
	}
}
