// Package access decides whether a subscriber may call an endpoint.
//
// The decision combines three inputs: the subscription's usage, the plan's
// usage limit and the endpoints granted to the plan. Quota is checked before
// endpoint matching, so a subscriber over quota is denied for every endpoint.
// How a granted pattern is compared with a request path is an explicit
// EndpointMatcher policy.
package access
