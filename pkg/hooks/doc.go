// Package hooks provides reusable reactive building blocks for host
// applications: a debounced value tracker, media-query match tracking, and a
// persisted key-value cell synced across contexts through a storage backend.
//
// Every hook is an effectful subscription with deterministic cleanup. Hooks
// created inside a reactive.Scope are torn down with it; nothing a hook
// acquired (a timer, a media subscription, a store watch) survives the scope
// that created it. External collaborators (scheduler, media environment,
// store) are injected, never ambient, so tests drive them manually.
package hooks
