package access

import (
	"fmt"
	"strings"
)

// MatchPolicy names an endpoint matching policy
type MatchPolicy string

const (
	// MatchSubstring trims "/" from the pattern and accepts any request path
	// containing it. This is permissive: "vm" matches "/get-vm-logs".
	MatchSubstring MatchPolicy = "substring"

	// MatchSegment requires the pattern to equal one or more whole,
	// consecutive path segments of the request path.
	MatchSegment MatchPolicy = "segment"

	// MatchExact requires the pattern to equal the whole request path or its
	// last segment, after trimming "/" from both.
	MatchExact MatchPolicy = "exact"
)

// EndpointMatcher compares a granted endpoint pattern with a request path
type EndpointMatcher interface {
	Match(pattern, path string) bool
	Policy() MatchPolicy
}

// NewEndpointMatcher returns the matcher for a policy. An empty policy selects MatchSubstring.
func NewEndpointMatcher(policy MatchPolicy) (EndpointMatcher, error) {
	switch policy {
	case "", MatchSubstring:
		return SubstringMatcher{}, nil
	case MatchSegment:
		return SegmentMatcher{}, nil
	case MatchExact:
		return ExactMatcher{}, nil
	default:
		return nil, fmt.Errorf("unknown endpoint match policy %q", policy)
	}
}

// SubstringMatcher implements MatchSubstring
type SubstringMatcher struct{}

func (SubstringMatcher) Policy() MatchPolicy { return MatchSubstring }

func (SubstringMatcher) Match(pattern, path string) bool {
	p := strings.Trim(pattern, "/")
	if p == "" {
		return false
	}
	return strings.Contains(path, p)
}

// SegmentMatcher implements MatchSegment
type SegmentMatcher struct{}

func (SegmentMatcher) Policy() MatchPolicy { return MatchSegment }

func (SegmentMatcher) Match(pattern, path string) bool {
	want := segments(pattern)
	have := segments(path)
	if len(want) == 0 || len(want) > len(have) {
		return false
	}
	for i := 0; i+len(want) <= len(have); i++ {
		if equalSegments(have[i:i+len(want)], want) {
			return true
		}
	}
	return false
}

// ExactMatcher implements MatchExact
type ExactMatcher struct{}

func (ExactMatcher) Policy() MatchPolicy { return MatchExact }

func (ExactMatcher) Match(pattern, path string) bool {
	want := strings.Trim(pattern, "/")
	if want == "" {
		return false
	}
	have := strings.Trim(path, "/")
	if want == have {
		return true
	}
	last := have[strings.LastIndex(have, "/")+1:]
	return want == last
}

func segments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func equalSegments(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
