// Package errors classifies provisioning failures so the CLI can map each one
// to a distinct exit code and a single diagnostic line.
package errors

import (
	stderrors "errors"
	"fmt"

	"devboot/internal/domain"
)

// Category groups kinds by the component that raises them.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryResolution Category = "resolution"
	CategoryIO         Category = "io"
	CategoryLaunch     Category = "launch"
	CategoryInternal   Category = "internal"
)

// Kind identifies a specific fatal condition.
type Kind string

const (
	KindFolderWorkspaceConflict Kind = "folder_workspace_conflict"
	KindOfflineCachedConflict   Kind = "offline_cached_conflict"
	KindOfflineExtensions       Kind = "offline_extensions"
	KindLicenseNotAccepted      Kind = "license_not_accepted"
	KindInvalidValue            Kind = "invalid_value"

	KindCacheMiss          Kind = "cache_miss"
	KindNoOfflineCandidate Kind = "no_offline_candidate"
	KindDownloadFailed     Kind = "download_failed"
	KindDownloadTimeout    Kind = "download_timeout"

	KindWriteFailed Kind = "write_failed"

	KindNotExecutable Kind = "not_executable"
	KindMissingDir    Kind = "missing_working_dir"
	KindStartFailed   Kind = "start_failed"

	KindInternal Kind = "internal"
)

var kindCategory = map[Kind]Category{
	KindFolderWorkspaceConflict: CategoryConfig,
	KindOfflineCachedConflict:   CategoryConfig,
	KindOfflineExtensions:       CategoryConfig,
	KindLicenseNotAccepted:      CategoryConfig,
	KindInvalidValue:            CategoryConfig,
	KindCacheMiss:               CategoryResolution,
	KindNoOfflineCandidate:      CategoryResolution,
	KindDownloadFailed:          CategoryResolution,
	KindDownloadTimeout:         CategoryResolution,
	KindWriteFailed:             CategoryIO,
	KindNotExecutable:           CategoryLaunch,
	KindMissingDir:              CategoryLaunch,
	KindStartFailed:             CategoryLaunch,
	KindInternal:                CategoryInternal,
}

// ClassifiedError is a fatal provisioning error tagged with its kind and the
// stage that raised it.
type ClassifiedError struct {
	kind    Kind
	stage   domain.Stage
	message string
	cause   error
	context map[string]any
}

func (e *ClassifiedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Kind() Kind          { return e.kind }
func (e *ClassifiedError) Stage() domain.Stage { return e.stage }
func (e *ClassifiedError) Message() string     { return e.message }

// Category returns the category of the error's kind.
func (e *ClassifiedError) Category() Category {
	if c, ok := kindCategory[e.kind]; ok {
		return c
	}
	return CategoryInternal
}

// Context returns the attached key/value context.
func (e *ClassifiedError) Context() map[string]any { return e.context }

// Is matches another ClassifiedError of the same kind, so callers can test
// with errors.Is(err, errors.Sentinel(KindCacheMiss)).
func (e *ClassifiedError) Is(target error) bool {
	var other *ClassifiedError
	if stderrors.As(target, &other) {
		return other.kind == e.kind && (other.message == "" || other.message == e.message)
	}
	return false
}

// Builder assembles a ClassifiedError.
type Builder struct {
	err ClassifiedError
}

// New starts a classified error of the given kind.
func New(kind Kind, message string) *Builder {
	return &Builder{err: ClassifiedError{kind: kind, message: message}}
}

// Wrap starts a classified error of the given kind around cause.
func Wrap(cause error, kind Kind, message string) *Builder {
	return &Builder{err: ClassifiedError{kind: kind, message: message, cause: cause}}
}

// At records the stage that raised the error.
func (b *Builder) At(stage domain.Stage) *Builder {
	b.err.stage = stage
	return b
}

// With attaches a context value.
func (b *Builder) With(key string, value any) *Builder {
	if b.err.context == nil {
		b.err.context = make(map[string]any)
	}
	b.err.context[key] = value
	return b
}

// Build returns the finished error.
func (b *Builder) Build() *ClassifiedError {
	e := b.err
	return &e
}

// Sentinel returns a kind-only error for use with errors.Is.
func Sentinel(kind Kind) error {
	return &ClassifiedError{kind: kind}
}

// Config builds a configuration error raised by validation.
func Config(kind Kind, message string) *ClassifiedError {
	return New(kind, message).At(domain.StageValidating).Build()
}

// Resolution builds a strategy resolution error.
func Resolution(kind Kind, message string, cause error) *ClassifiedError {
	return Wrap(cause, kind, message).At(domain.StageResolving).Build()
}

// IO builds an artifact write error.
func IO(message string, cause error) *ClassifiedError {
	return Wrap(cause, KindWriteFailed, message).At(domain.StageProvisioning).Build()
}

// Launch builds a process launch error.
func Launch(kind Kind, message string, cause error) *ClassifiedError {
	return Wrap(cause, kind, message).At(domain.StageLaunching).Build()
}

// As extracts the outermost ClassifiedError in err's chain.
func As(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal when unclassified.
func KindOf(err error) Kind {
	if ce, ok := As(err); ok {
		return ce.kind
	}
	return KindInternal
}
