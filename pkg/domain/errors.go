package domain

import "errors"

// ErrInvalidDefinition is returned when a survey definition fails structural validation.
var ErrInvalidDefinition = errors.New("invalid survey definition")

// ErrUnknownForm is returned when a resolved form id is missing from the definition.
var ErrUnknownForm = errors.New("unknown form")

// ErrUnknownQuestion is returned when an answer references a question the definition does not declare.
var ErrUnknownQuestion = errors.New("unknown question")

// ErrSessionNotFound is returned when a session ID cannot be found.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExists is returned when creating a session whose ID is already live.
var ErrSessionExists = errors.New("session already exists")

// ErrSubmissionNotFound is returned when a submission ID cannot be found in the store.
var ErrSubmissionNotFound = errors.New("submission not found")
