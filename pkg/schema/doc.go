// Package schema validates collected answers against the questions of a form.
//
// ValidateForm is the gate used by navigation: it returns one message per required
// question that is unanswered or answered with an empty selection, and an empty list
// when the form may be left forward. Non-required questions are never checked.
//
//	problems := schema.ValidateForm(form, answers)
//	if len(problems) > 0 {
//	    // keep the "Next" affordance disabled and show problems
//	}
//
// CheckForm returns the same findings as typed errors (*AggregateError of
// *ValidationError), and CheckAnswer lets hosts reject a malformed selection before it
// is stored.
//
// All functions are pure and may be called repeatedly.
package schema
