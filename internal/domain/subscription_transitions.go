package domain

// statusTransition is a directed edge between two subscription statuses.
type statusTransition struct {
	From SubscriptionStatus
	To   SubscriptionStatus
}

// validStatusTransitions lists the changes accepted for the same provider
// subscription. Webhooks can arrive out of order; anything not listed here is
// a stale event.
var validStatusTransitions = map[statusTransition]bool{
	{SubStatusIncomplete, SubStatusActive}:            true,
	{SubStatusIncomplete, SubStatusTrialing}:          true,
	{SubStatusIncomplete, SubStatusIncompleteExpired}: true,
	{SubStatusIncomplete, SubStatusCanceled}:          true,
	{SubStatusTrialing, SubStatusActive}:              true,
	{SubStatusTrialing, SubStatusPastDue}:             true,
	{SubStatusTrialing, SubStatusUnpaid}:              true,
	{SubStatusTrialing, SubStatusPaused}:              true,
	{SubStatusTrialing, SubStatusCanceled}:            true,
	{SubStatusActive, SubStatusPastDue}:               true,
	{SubStatusActive, SubStatusUnpaid}:                true,
	{SubStatusActive, SubStatusPaused}:                true,
	{SubStatusActive, SubStatusCanceled}:              true,
	{SubStatusPastDue, SubStatusActive}:               true, // payment recovered
	{SubStatusPastDue, SubStatusUnpaid}:               true,
	{SubStatusPastDue, SubStatusCanceled}:             true,
	{SubStatusPastDue, SubStatusIncompleteExpired}:    true,
	{SubStatusUnpaid, SubStatusActive}:                true,
	{SubStatusUnpaid, SubStatusCanceled}:              true,
	{SubStatusPaused, SubStatusActive}:                true,
	{SubStatusPaused, SubStatusCanceled}:              true,
}

// CanTransition reports whether a subscription may move from one status to
// another. Re-applying the current status is always allowed so period and
// plan refreshes go through.
func CanTransition(from, to SubscriptionStatus) bool {
	if from == to || from == "" {
		return true
	}
	return validStatusTransitions[statusTransition{from, to}]
}
