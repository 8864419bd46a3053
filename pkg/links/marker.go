// Package links infers cross-service communication links from "[LINK]"
// marker messages in task logs.
//
// Two marker grammars are understood:
//
//	[LINK] API - <action> - Source: {<service>} - Destination: {<service>}
//	[LINK] RabbitMQ - Publish "<channel>"
//	[LINK] RabbitMQ - Subscribe "<channel>"
//
// "MessageQueue" is accepted in place of "RabbitMQ". API markers become one
// link per distinct action between the nodes of the two services, falling
// back to a service's black-box node. Each Publish is linked to a Subscribe
// on the same channel; a Publish without a subscriber is dropped.
package links

import (
	"regexp"
	"strings"

	perrors "github.com/matzehuels/procgraph/pkg/errors"
)

const (
	// MarkerPrefix starts every link marker message.
	MarkerPrefix = "[LINK]"

	// fieldSep separates the fields of a marker.
	fieldSep = " - "
)

// Kind is the protocol of a link.
type Kind string

const (
	KindAPI          Kind = "API"
	KindMessageQueue Kind = "MessageQueue"
)

// Queue actions.
const (
	ActionPublish   = "Publish"
	ActionSubscribe = "Subscribe"
)

var (
	queueAction  = regexp.MustCompile(`(Publish|Subscribe) "(.*?)"`)
	serviceBrace = regexp.MustCompile(`\{(.*?)\}`)
)

// Marker is a parsed link marker.
type Marker struct {
	Kind Kind

	// API fields.
	Action             string
	SourceService      string
	DestinationService string

	// Queue fields. Action holds Publish or Subscribe.
	Channel string
}

// Key groups markers: "source-destination" for API markers and
// "MessageQueue-action-channel" for queue markers.
func (m Marker) Key() string {
	if m.Kind == KindAPI {
		return m.SourceService + "-" + m.DestinationService
	}
	return string(KindMessageQueue) + "-" + m.Action + "-" + m.Channel
}

// IsMarker reports whether a log message carries a link marker.
func IsMarker(msg string) bool {
	return strings.HasPrefix(msg, MarkerPrefix)
}

// ParseMarker parses a marker message. Messages that start with the marker
// prefix but do not follow either grammar yield a MALFORMED_LINK error.
func ParseMarker(msg string) (Marker, error) {
	if !IsMarker(msg) {
		return Marker{}, perrors.New(perrors.ErrCodeMalformedLink, "not a link marker: %q", msg)
	}
	parts := strings.Split(msg, fieldSep)
	head := strings.Fields(parts[0])
	if len(head) < 2 {
		return Marker{}, perrors.New(perrors.ErrCodeMalformedLink, "missing link type: %q", msg)
	}

	switch head[1] {
	case "API":
		if len(parts) < 4 {
			return Marker{}, perrors.New(perrors.ErrCodeMalformedLink, "API marker needs action, source and destination: %q", msg)
		}
		src, ok := braced(parts[2])
		if !ok {
			return Marker{}, perrors.New(perrors.ErrCodeMalformedLink, "malformed source %q", parts[2])
		}
		dst, ok := braced(parts[3])
		if !ok {
			return Marker{}, perrors.New(perrors.ErrCodeMalformedLink, "malformed destination %q", parts[3])
		}
		return Marker{
			Kind:               KindAPI,
			Action:             strings.TrimSpace(parts[1]),
			SourceService:      src,
			DestinationService: dst,
		}, nil

	case "RabbitMQ", string(KindMessageQueue):
		if len(parts) < 2 {
			return Marker{}, perrors.New(perrors.ErrCodeMalformedLink, "queue marker needs an action: %q", msg)
		}
		m := queueAction.FindStringSubmatch(parts[1])
		if m == nil {
			return Marker{}, perrors.New(perrors.ErrCodeMalformedLink, "invalid queue action %q", parts[1])
		}
		return Marker{Kind: KindMessageQueue, Action: m[1], Channel: m[2]}, nil
	}
	return Marker{}, perrors.New(perrors.ErrCodeMalformedLink, "unknown link type %q", head[1])
}

// braced extracts the service name from "Label: {service}".
func braced(field string) (string, bool) {
	_, value, ok := strings.Cut(field, ": ")
	if !ok {
		return "", false
	}
	m := serviceBrace.FindStringSubmatch(value)
	if m == nil || m[1] == "" {
		return "", false
	}
	return m[1], true
}
