package store

// Declare database key prefixes for settlement metadata
const (
	PrefixConservation   = "conservation:"
	PrefixLastCheckpoint = "last_checkpoint:"
)
