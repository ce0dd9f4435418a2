package dcd

// ComputeCursorOffset returns the byte offset dcd-client should be queried at.
//
// When the completion prefix directly follows a member access ("foo.ba|"), the
// server needs the offset right after the dot so it can resolve the receiver;
// otherwise the raw cursor position is used.
func ComputeCursorOffset(buffer string, rawPos, prefixLen int) int {
	pos := rawPos - prefixLen
	if pos < 1 || pos > len(buffer) {
		return rawPos
	}
	if buffer[pos-1] == '.' {
		return pos
	}
	return rawPos
}
