package pipeline

import "iter"

// Once returns a finite, single-element stream yielding answer and then
// terminating. The engine has no native streaming mode, so the adapter
// satisfies the host's streaming-shaped contract by emitting exactly one
// chunk.
//
// The stream is non-restartable: ranging over it a second time yields
// nothing.
func Once(answer string) iter.Seq[string] {
	done := false
	return func(yield func(string) bool) {
		if done {
			return
		}
		done = true
		yield(answer)
	}
}
