package errors

// Exit codes. Zero is success; each fatal kind has its own code so callers can
// tell an invalid configuration from a missing offline binary from a failed
// download.
const (
	ExitOK       = 0
	ExitGeneric  = 1
	ExitInternal = 1
)

var exitCodes = map[Kind]int{
	KindFolderWorkspaceConflict: 10,
	KindOfflineCachedConflict:   11,
	KindOfflineExtensions:       12,
	KindLicenseNotAccepted:      13,
	KindInvalidValue:            14,
	KindCacheMiss:               20,
	KindNoOfflineCandidate:      21,
	KindDownloadFailed:          22,
	KindDownloadTimeout:         23,
	KindWriteFailed:             30,
	KindNotExecutable:           40,
	KindMissingDir:              41,
	KindStartFailed:             42,
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	ce, ok := As(err)
	if !ok {
		return ExitGeneric
	}
	if code, ok := exitCodes[ce.kind]; ok {
		return code
	}
	return ExitInternal
}
