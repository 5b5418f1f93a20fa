// Package webview delivers messages into a web view by injecting a
// postMessage call into the page
package webview

import (
	"context"
	"fmt"
	"sync"

	"github.com/glimte/mmate-embed/messaging"
)

// ScriptInjector evaluates JavaScript inside the embedded page
type ScriptInjector interface {
	InjectJavaScript(script string) error
}

// InjectorFunc is a function adapter for ScriptInjector
type InjectorFunc func(script string) error

// InjectJavaScript implements ScriptInjector
func (f InjectorFunc) InjectJavaScript(script string) error {
	return f(script)
}

// PostMessageScript wraps a serialized message in the script that posts it to
// the page. The trailing true keeps injectors that evaluate the script's
// value from complaining about a non-serializable result
func PostMessageScript(data []byte) string {
	return fmt.Sprintf("window.postMessage(%s, \"*\");true;", data)
}

// Transport is attached while a web view is mounted
type Transport struct {
	mu        sync.Mutex
	injector  ScriptInjector
	listeners []func(bool)
}

// NewTransport creates a detached transport
func NewTransport() *Transport {
	return &Transport{}
}

// Attach binds the transport to a mounted web view
func (t *Transport) Attach(injector ScriptInjector) {
	t.mu.Lock()
	changed := t.injector == nil && injector != nil
	t.injector = injector
	t.mu.Unlock()

	if changed {
		t.notify(true)
	}
}

// Detach forgets the web view, for example when it unmounts
func (t *Transport) Detach() {
	t.mu.Lock()
	changed := t.injector != nil
	t.injector = nil
	t.mu.Unlock()

	if changed {
		t.notify(false)
	}
}

// Deliver implements messaging.Transport
func (t *Transport) Deliver(_ context.Context, data []byte) error {
	t.mu.Lock()
	injector := t.injector
	t.mu.Unlock()

	if injector == nil {
		return messaging.ErrNotAttached
	}
	if err := injector.InjectJavaScript(PostMessageScript(data)); err != nil {
		return fmt.Errorf("inject script: %w", err)
	}
	return nil
}

// Attached implements messaging.Transport
func (t *Transport) Attached() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.injector != nil
}

// NotifyAttach implements messaging.AttachNotifier
func (t *Transport) NotifyAttach(fn func(bool)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

func (t *Transport) notify(attached bool) {
	t.mu.Lock()
	listeners := append([]func(bool){}, t.listeners...)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(attached)
	}
}
