package contract

import "fmt"

// #region schema-violation

// SchemaViolation reports a role payload that failed contract validation.
// It names the offending field so role behavior stays auditable; the
// validator never repairs data itself.
type SchemaViolation struct {
	Role  string
	Field string
	Msg   string
}

func (e *SchemaViolation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s output: %s", e.Role, e.Msg)
	}
	return fmt.Sprintf("%s output: field %q: %s", e.Role, e.Field, e.Msg)
}

func violation(role, field, msg string) error {
	return &SchemaViolation{Role: role, Field: field, Msg: msg}
}

// #endregion
