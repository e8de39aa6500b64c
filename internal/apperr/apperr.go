// Package apperr gives every failure mode in the capture pipeline a stable
// kind and a process exit code, so main can turn any error the orchestrator
// hands back into the right message and status without re-deriving it from
// string matching.
package apperr

import "fmt"

// Kind classifies a failure by which stage of the pipeline produced it.
type Kind int

const (
	KindUnknown Kind = iota
	KindInterfaceOpen
	KindCaptureFault
	KindPacketParse
	KindSocketEnum
	KindDNSLookup
	KindRender
	KindUsage
	KindPermission
	KindInterfaceMissing
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindInterfaceOpen:
		return "interface_open"
	case KindCaptureFault:
		return "capture_fault"
	case KindPacketParse:
		return "packet_parse"
	case KindSocketEnum:
		return "socket_enum"
	case KindDNSLookup:
		return "dns_lookup"
	case KindRender:
		return "render"
	case KindUsage:
		return "usage"
	case KindPermission:
		return "permission"
	case KindInterfaceMissing:
		return "interface_missing"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ExitCode maps a Kind to the process exit status this program's error
// taxonomy assigns it. Kinds with no explicit mapping fall back to the
// generic failure code.
func (k Kind) ExitCode() int {
	switch k {
	case KindUsage:
		return 2
	case KindPermission:
		return 3
	case KindInterfaceMissing:
		return 4
	case KindUnknown:
		return 1
	default:
		return 1
	}
}

// Error wraps an underlying error with a Kind, so the orchestrator can
// decide a shutdown behavior and exit code without inspecting error text.
type Error struct {
	Kind Kind
	Op   string // component/operation that failed, e.g. "capture.Open"
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error for op failing with err under kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, returning KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if asError(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// asError is errors.As without importing errors twice in call sites that
// already shadow the name; kept local and tiny.
func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
