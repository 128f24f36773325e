package order

import "strconv"

// DefaultMaxKitDepth bounds how deep kit components may nest. Depth 1 is a top-level item.
const DefaultMaxKitDepth = 5

// Row is an item positioned in the flattened kit tree
type Row struct {
	Item  *Item
	Depth int
	// Path is the JSON path of the item, e.g. items[2].kit_items[0]
	Path string
}

// Walk visits items depth-first, parents before their components. Returning
// false from fn stops the walk.
func Walk(items []Item, fn func(row Row) bool) {
	walk(items, 1, "items", fn)
}

func walk(items []Item, depth int, prefix string, fn func(row Row) bool) bool {
	for i := range items {
		path := indexPath(prefix, i)
		if !fn(Row{Item: &items[i], Depth: depth, Path: path}) {
			return false
		}
		if len(items[i].KitItems) > 0 {
			if !walk(items[i].KitItems, depth+1, path+".kit_items", fn) {
				return false
			}
		}
	}
	return true
}

// Depth returns the deepest nesting level in items, 0 for an empty list
func Depth(items []Item) int {
	deepest := 0
	Walk(items, func(row Row) bool {
		if row.Depth > deepest {
			deepest = row.Depth
		}
		return true
	})
	return deepest
}

// Flatten returns every item in display order with its depth
func Flatten(items []Item) []Row {
	rows := make([]Row, 0, len(items))
	Walk(items, func(row Row) bool {
		rows = append(rows, row)
		return true
	})
	return rows
}

// firstTooDeep returns the path of the first item nested beyond maxDepth
func firstTooDeep(items []Item, maxDepth int) (string, bool) {
	var found string
	Walk(items, func(row Row) bool {
		if row.Depth > maxDepth {
			found = row.Path
			return false
		}
		return true
	})
	return found, found != ""
}

func indexPath(prefix string, i int) string {
	return prefix + "[" + strconv.Itoa(i) + "]"
}
