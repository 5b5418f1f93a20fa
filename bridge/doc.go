// Package bridge provides request/reply correlation and event dispatch between
// a host application and the content it embeds.
//
// The bridge sits on top of a one-way messaging.Transport and turns it into
// something the host can use like a local object:
//   - Trigger sends a HOST_EVENT with a fresh EventId and returns a Call that
//     completes when the matching HOST_EVENT_REPLY arrives
//   - RegisterEmbedEvent subscribes to EMBED_EVENT messages; every handler for
//     a name runs, in registration order
//   - REQUEST_AUTH_TOKEN is answered from an auth.CredentialSource
//
// Basic usage:
//
//	b := bridge.NewEmbedBridge(transport, bridge.WithCredentials(src))
//	_ = b.RegisterEmbedEvent("load", messaging.PayloadHandler(onLoad))
//
//	call, err := b.Trigger(ctx, "getFilters", nil)
//	if err != nil {
//	    return err
//	}
//	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
//	defer cancel()
//	filters, err := call.Wait(ctx)
//
// The bridge has no timeouts of its own. Calls still pending when Destroy runs
// are abandoned rather than failed, so callers bound their waits with a context.
package bridge
