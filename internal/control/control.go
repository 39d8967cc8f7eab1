// Package control abstracts the remote production tool that automation
// actions drive. The engine only ever talks to the Adapter interface;
// transport, reconnection and authentication live behind it.
package control

import "context"

// Adapter is the full control-surface contract. Every operation may fail
// if the remote tool is unreachable; implementations own their own retry
// and reconnect policy. There are no partial implementations: either the
// whole contract is supplied or calls fail with errs.ErrAdapterUnavailable.
type Adapter interface {
	SwitchScene(ctx context.Context, name string) error
	SetSourceVisibility(ctx context.Context, scene, source string, visible bool) error
	PlayMedia(ctx context.Context, source string) error
	PauseMedia(ctx context.Context, source string) error
	RestartMedia(ctx context.Context, source string) error
	StartCapture(ctx context.Context) error
	StopCapture(ctx context.Context) error
	Connected() bool
}
