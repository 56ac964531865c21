package query

// View is which of the four page states a query renders as
type View string

const (
	ViewLoading   View = "loading"
	ViewError     View = "error"
	ViewEmpty     View = "empty"
	ViewPopulated View = "populated"
)

// RenderState is what a page draws for one query
type RenderState struct {
	View View
	// Refreshing is set while data is shown and a background fetch runs
	Refreshing bool
	// Err is the latest failure, also set alongside previously loaded data
	Err error
}

// Render derives the render state of snap; isEmpty decides whether a
// successful result has nothing to show.
func Render[T any](snap Snapshot, isEmpty func(T) bool) RenderState {
	if !snap.HasData() {
		if snap.Err != nil && !snap.Fetching {
			return RenderState{View: ViewError, Err: snap.Err}
		}
		return RenderState{View: ViewLoading}
	}

	rs := RenderState{
		View:       ViewPopulated,
		Refreshing: snap.Fetching,
		Err:        snap.Err,
	}
	if v, ok := snap.Data.(T); ok && isEmpty != nil && isEmpty(v) {
		rs.View = ViewEmpty
	}
	return rs
}

// RenderKey is Render over the current snapshot of key
func RenderKey[T any](c *Client, key Key, isEmpty func(T) bool) RenderState {
	return Render(c.Get(key), isEmpty)
}
