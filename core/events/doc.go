// Package events defines the assignment related events emitted on the event bus.
//
// Available event types:
//   - ProposalEvent: a new assignment proposed to a partner
//   - ResponseEvent: a partner accepted or declined a proposal
//   - TransitionEvent: any assignment state change, including expiries
//   - EscalationEvent: no eligible candidate remains for a request
package events
