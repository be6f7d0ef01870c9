// Package devnotes is a sync client for the dev notes backend: positioned
// text notes pinned inside game levels, coloured tags and the users who
// author them.
//
// # Session
//
// A [Client] keeps at most one session. On [Client.Run] it reads the token
// persisted under the data directory and validates it with the server. The
// client counts as logged in while that validation is pending, so a
// temporarily unreachable server never throws the token away; only an
// explicit 401 or 403 does. The same rule holds for every authenticated
// request: a 401 or 403 ends the session locally, any other failure is
// reported and logged and leaves it alone.
//
// Use [Client.SignIn] and [Client.SignOut] to change sessions. Sign-out
// always clears local state, whether or not the server acknowledges it.
//
// # Operations and callbacks
//
// Every operation returns immediately. The work is queued on the client's
// loop and the optional [Callback] is invoked on that loop with a [Result]
// once the server has answered. Callbacks and [EventHandler]s run one at a
// time and must not block.
//
// Writes are followed by a fresh list of the affected collection; the
// local caches are only ever replaced by what the server returns, with two
// exceptions: [Client.NewNoteAt] and [Client.CreateTag] add the new entity
// immediately so it can be shown before the server confirms it.
//
// # Refresh
//
// While signed in the client refreshes tags, users and notes on a fixed
// interval and, when a live URL is configured, whenever the server pushes a
// change hint. Call [Client.BeginEdit] when the user starts typing into a
// note and [Client.EndEdit] when they are done: refreshes that arrive in
// between are folded into a single one that runs on EndEdit.
//
// # Reading
//
// The read accessors ([Client.Notes], [Client.Tags], [Client.Filter], ...)
// are safe to call from any goroutine and return copies.
package devnotes
