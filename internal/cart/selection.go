package cart

import "sort"

// Selection tracks which line items are checked for checkout. It is bound to one cart
// View version and empties itself as soon as it sees another one, so ids of items that
// were removed or changed remotely are never counted.
type Selection struct {
	enabled bool
	version uint64
	ids     IDSet
}

func NewSelection(view *View) *Selection {
	s := &Selection{enabled: true, ids: IDSet{}}
	if view != nil {
		s.version = view.Version
	}
	return s
}

func (s *Selection) Enabled() bool {
	return s.enabled
}

// SetMode switches selection mode; turning it off drops every selected id.
func (s *Selection) SetMode(on bool) {
	s.enabled = on
	if !on {
		s.Clear()
	}
}

// Reconcile resets the selection when view is a different snapshot than the one the
// selection was built on.
func (s *Selection) Reconcile(view *View) {
	if view == nil || view.Version == s.version {
		return
	}
	s.version = view.Version
	s.ids = IDSet{}
}

// Toggle flips id and reports whether it is selected afterwards.
func (s *Selection) Toggle(id string) bool {
	if s.ids.Has(id) {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *Selection) Select(ids ...string) {
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

func (s *Selection) SelectAll(view *View) {
	s.Reconcile(view)
	for _, item := range view.Items {
		s.ids[item.ID] = struct{}{}
	}
}

func (s *Selection) Clear() {
	s.ids = IDSet{}
}

func (s *Selection) Has(id string) bool {
	return s.ids.Has(id)
}

func (s *Selection) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Items returns the selected line items of view in cart order.
func (s *Selection) Items(view *View) []LineItem {
	s.Reconcile(view)
	var items []LineItem
	for _, item := range view.Items {
		if s.ids.Has(item.ID) {
			items = append(items, item)
		}
	}
	return items
}

func (s *Selection) Totals(view *View) SelectedTotals {
	s.Reconcile(view)
	return ComputeSelectedTotals(view.Items, s.ids)
}
