// Package router turns one German or English chat line into a typed Command.
//
// Routing is pure: no classifier touches the filesystem or the session.
// Paths stay as typed; the executor resolves them against the session
// directory.
package router

// Resolve runs the classifiers in order:
// greeting, filesystem, collection, index, meta, then the RAG fallback.
//
// Filesystem and collection templates overlap ("wechsel zu X", "lösche X").
// A filesystem match wins when the text holds a recognizable path;
// otherwise a collection match takes precedence.
func Resolve(u Utterance) Command {
	if u.Match == "" {
		return RagFallback{Text: u.Text}
	}

	if cmd, ok := classifyGreeting(u); ok {
		return cmd
	}

	if cmd, ok := classifyFilesystem(u); ok {
		if HasPath(u.Match) {
			return cmd
		}
		if coll, ok := classifyCollection(u); ok {
			return coll
		}
		return cmd
	}

	if cmd, ok := classifyCollection(u); ok {
		return cmd
	}

	if cmd, ok := classifyIndex(u); ok {
		return cmd
	}

	if cmd, ok := classifyMeta(u); ok {
		return cmd
	}

	return RagFallback{Text: u.Text}
}

// Route normalizes raw, resolves it and applies the confirmation gate.
// Every input yields exactly one Command.
func Route(raw string) Command {
	u := Normalize(raw)
	return Gate(Resolve(u), u.Original)
}
