// Package billing provides the subscription side of usage metering.
//
// A Subscription binds one user to one plan and carries the running usage
// counter that the gateway increments after each authorized call. Quota
// summarises a counter against its plan's limit for inspection endpoints.
//
// There is no reset operation: usage only grows until a subscription is
// removed.
package billing
