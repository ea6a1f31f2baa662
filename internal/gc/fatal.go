package gc

// fatal logs msg and terminates the process. Used for the two failure
// kinds spec §7 declares fatal (OutOfMemory, RootSetGrowth) and for the
// mid-evacuation exhaustion spec §4.3 calls a misconfigured semispace:
// moving collectors cannot fail gracefully mid-traversal without leaving
// forwarding pointers in an inconsistent state (spec §4.5).
func fatal(format string, args ...any) {
	DefaultLogger.Fatalf(format, args...)
}
