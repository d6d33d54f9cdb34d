/*
Package domain contains the core models of the survey engine.

It defines the read-only survey graph (Definition, Form, Question, Option and the
Next transition rules), the mutable per-session data (AnswerStore and State), the
lifecycle events emitted during navigation, and the resource/category shapes consumed
when grouping results. This package is kept pure: no I/O, no persistence, no logging.

# Key Entities

  - Definition: the ordered list of forms. The first form is the entry point.
  - Form: one navigable screen with one or more questions and an optional Next rule.
  - Next: a fixed transition or a conditional mapping keyed by the form's single answer.
  - AnswerStore: upsert-only collection holding at most one Answer per question.
  - State: the navigation history and answers owned by exactly one session.
*/
package domain
