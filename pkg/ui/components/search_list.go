package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// SearchList is a filter entry above a list of matching items
type SearchList[T any] struct {
	entry  *widget.Entry
	list   *widget.List
	items  []T
	search func(query string) []T
	render func(T) string
}

// SearchListConfig configures a SearchList
type SearchListConfig[T any] struct {
	Placeholder string
	Search      func(query string) []T // returns the items matching query
	Render      func(T) string         // renders an item for display
	OnSelected  func(T)                // called when the user picks an item
}

// NewSearchList creates a SearchList and the container holding it
func NewSearchList[T any](config SearchListConfig[T]) (*SearchList[T], *fyne.Container) {
	sl := &SearchList[T]{
		search: config.Search,
		render: config.Render,
	}

	sl.list = widget.NewList(
		func() int {
			return len(sl.items)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("template")
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i < len(sl.items) {
				o.(*widget.Label).SetText(sl.render(sl.items[i]))
			}
		})

	sl.list.OnSelected = func(id widget.ListItemID) {
		if id < len(sl.items) && config.OnSelected != nil {
			config.OnSelected(sl.items[id])
		}
		sl.list.UnselectAll()
	}

	sl.entry = widget.NewEntry()
	sl.entry.SetPlaceHolder(config.Placeholder)
	sl.entry.OnChanged = sl.Filter

	sl.Filter("")

	listScroll := container.NewScroll(sl.list)
	listScroll.SetMinSize(fyne.NewSize(0, 200))

	return sl, container.NewBorder(sl.entry, nil, nil, nil, listScroll)
}

// Filter replaces the list contents with the items matching query
func (sl *SearchList[T]) Filter(query string) {
	sl.items = sl.search(query)
	sl.list.Refresh()
}

// Items returns the items currently listed
func (sl *SearchList[T]) Items() []T {
	return sl.items
}
