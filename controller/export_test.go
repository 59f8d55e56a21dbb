package controller

// ResetInMem clears an in memory store between tests.
func ResetInMem(s Store) { s.(*inmem).reset() }
