// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package apperr holds the closed set of failure kinds surfaced by the
// submission, voting, category and session operations. Callers branch on the
// kind, never on the message.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindAlreadyAuthenticated
	KindValidation
	KindDuplicateResource
	KindNotFound
	KindMetadataFetch
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindAlreadyAuthenticated:
		return "already_authenticated"
	case KindValidation:
		return "validation"
	case KindDuplicateResource:
		return "duplicate_resource"
	case KindNotFound:
		return "not_found"
	case KindMetadataFetch:
		return "metadata_fetch"
	case KindConfiguration:
		return "configuration"
	default:
		return "internal"
	}
}

// Error is a tagged failure. Detail is human readable only.
type Error struct {
	Kind     Kind
	Resource string // e.g. "submission", "category", "email"
	Detail   string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Resource != "" {
		msg = e.Resource + " " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind, and by resource when the sentinel names one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Resource == "" || t.Resource == e.Resource
}

// Sentinels for errors.Is
var (
	ErrUnauthenticated      = &Error{Kind: KindUnauthenticated}
	ErrAlreadyAuthenticated = &Error{Kind: KindAlreadyAuthenticated}
	ErrValidation           = &Error{Kind: KindValidation}
	ErrDuplicateResource    = &Error{Kind: KindDuplicateResource}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrMetadataFetch        = &Error{Kind: KindMetadataFetch}
	ErrConfiguration        = &Error{Kind: KindConfiguration}

	ErrCategoryNotFound   = &Error{Kind: KindNotFound, Resource: ResourceCategory}
	ErrSubmissionNotFound = &Error{Kind: KindNotFound, Resource: ResourceSubmission}
)

// Resource names
const (
	ResourceSubmission = "submission"
	ResourceCategory   = "category"
	ResourceContent    = "content"
	ResourceUser       = "user"
	ResourceStage      = "stage"
)

func Unauthenticated(detail string) error {
	return &Error{Kind: KindUnauthenticated, Detail: detail}
}

func AlreadyAuthenticated(detail string) error {
	return &Error{Kind: KindAlreadyAuthenticated, Detail: detail}
}

func Validation(field, detail string) error {
	return &Error{Kind: KindValidation, Resource: field, Detail: detail}
}

func Duplicate(resource, detail string) error {
	return &Error{Kind: KindDuplicateResource, Resource: resource, Detail: detail}
}

func NotFound(resource, detail string) error {
	return &Error{Kind: KindNotFound, Resource: resource, Detail: detail}
}

func MetadataFetch(url string, err error) error {
	return &Error{Kind: KindMetadataFetch, Resource: ResourceContent, Detail: fmt.Sprintf("fetch %s", url), Err: err}
}

func Configuration(detail string) error {
	return &Error{Kind: KindConfiguration, Detail: detail}
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
