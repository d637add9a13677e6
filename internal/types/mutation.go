package types

// Mutation is the full set of writes produced by one engine transition. The
// store applies it atomically: the session row is updated with an optimistic
// version check, and every other write rides the same transaction.
type Mutation struct {
	// Session carries the new state. Its Version field still holds the
	// version the state was loaded at; the store bumps it on commit.
	Session *Session

	UpsertTasks    []Task
	UpsertMeetings []Meeting
	UpsertOffers   []JobOffer

	// LedgerEntries are append-only.
	LedgerEntries []LedgerEntry
}
