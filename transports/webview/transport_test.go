package webview

import (
	"context"
	"errors"
	"testing"

	"github.com/glimte/mmate-embed/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInjector struct {
	scripts []string
	err     error
}

func (r *recordingInjector) InjectJavaScript(script string) error {
	r.scripts = append(r.scripts, script)
	return r.err
}

func TestPostMessageScript(t *testing.T) {
	assert.Equal(t, `window.postMessage({"type":"INIT"}, "*");true;`, PostMessageScript([]byte(`{"type":"INIT"}`)))
}

func TestTransport(t *testing.T) {
	t.Run("detached transport refuses delivery", func(t *testing.T) {
		tr := NewTransport()

		assert.False(t, tr.Attached())
		assert.ErrorIs(t, tr.Deliver(context.Background(), []byte(`{}`)), messaging.ErrNotAttached)
	})

	t.Run("attached transport injects postMessage", func(t *testing.T) {
		tr := NewTransport()
		inj := &recordingInjector{}
		tr.Attach(inj)

		require.NoError(t, tr.Deliver(context.Background(), []byte(`{"type":"EMBED"}`)))

		assert.Equal(t, []string{`window.postMessage({"type":"EMBED"}, "*");true;`}, inj.scripts)
	})

	t.Run("injector errors are wrapped", func(t *testing.T) {
		boom := errors.New("page gone")
		tr := NewTransport()
		tr.Attach(&recordingInjector{err: boom})

		assert.ErrorIs(t, tr.Deliver(context.Background(), []byte(`{}`)), boom)
	})

	t.Run("attach and detach notify on change only", func(t *testing.T) {
		tr := NewTransport()
		var states []bool
		tr.NotifyAttach(func(attached bool) { states = append(states, attached) })

		inj := InjectorFunc(func(string) error { return nil })
		tr.Attach(inj)
		tr.Attach(inj)
		tr.Detach()
		tr.Detach()

		assert.Equal(t, []bool{true, false}, states)
	})
}
