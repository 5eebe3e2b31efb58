// Package resource binds an asynchronous fetch to the reactive graph.
//
// A Resource moves through explicit states:
//
//	Unresolved ──tick──▶ Pending ──▶ Ready
//	                        ▲   └───▶ Errored
//	                        └── refetch / source change
//
// The first fetch is deferred by one task on the runtime's queue so callers
// can attach consumers before it fires. When built with a source, every
// change of the source starts a new fetch with the new value. Only the most
// recently started fetch may settle the resource; older ones are cancelled
// and their results dropped.
//
// Basic usage:
//
//	user := resource.NewWithSource(rt, userID, func(ctx context.Context, id int) (*User, error) {
//	    return db.FindUser(ctx, id)
//	}).RetryOnError(2, 100*time.Millisecond)
//
//	reactive.CreateEffect(rt, func() {
//	    switch user.State() {
//	    case resource.Pending:
//	        showSpinner()
//	    case resource.Ready:
//	        render(user.Get())
//	    case resource.Errored:
//	        showError(user.Error())
//	    }
//	})
package resource
