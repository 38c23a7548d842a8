// Package provider holds the interaction contracts the transport and stream
// packages implement: RequestResponse for single calls and Stream for
// subscriptions read through an Iterator.
//
//	it, err := client.Execute(ctx, stream.Subscription{Token: tok})
//	if err != nil {
//	    return err
//	}
//	defer it.Close()
//	for ev, err := range provider.All(ctx, it) {
//	    ...
//	}
package provider
