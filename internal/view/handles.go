package view

// handles collects the release funcs of everything the view subscribed to,
// so they can be dropped together.
type handles []func()

func (h *handles) add(release func()) {
	if release != nil {
		*h = append(*h, release)
	}
}

// release runs every release func in reverse order and empties the set.
func (h *handles) release() {
	for i := len(*h) - 1; i >= 0; i-- {
		(*h)[i]()
	}
	*h = nil
}
