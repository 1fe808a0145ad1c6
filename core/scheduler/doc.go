// Package scheduler provides a deadline timer registry keyed by assignment
// id. Timers are cancellable on early responses and replaced when a request
// is re-proposed to another partner.
package scheduler
