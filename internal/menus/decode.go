package menus

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/goliatone/go-showcase/internal/manifest"
	showcasepackages "github.com/goliatone/go-showcase/packages"
)

// Shape names the menus.json layout that produced a tree.
type Shape string

const (
	ShapeNone   Shape = ""
	ShapeFlat   Shape = "flat"
	ShapeNamed  Shape = "named"
	ShapeExport Shape = "export"
)

var namedListPriority = []string{"primary", "header", "menu"}

// exportMenu is one menu of a full export.
type exportMenu struct {
	Slug  string           `json:"slug"`
	Name  string           `json:"name"`
	Items []map[string]any `json:"items"`
}

// decodeMenus picks the richest shape menus.json can be read as: a full
// export, then named lists, then a flat list.
func decodeMenus(raw json.RawMessage, location string, locations map[string]any) ([]*Node, Shape) {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return nil, ShapeNone
		}
		var probe map[string]json.RawMessage
		if json.Unmarshal(list[0], &probe) == nil {
			if _, ok := probe["items"]; ok {
				var menus []exportMenu
				if err := json.Unmarshal(raw, &menus); err == nil {
					return exportTree(menus, location, locations), ShapeExport
				}
				// a list of menus whose later entries do not decode
				return exportTree(decodeLooseMenus(list), location, locations), ShapeExport
			}
		}
		return flatTree(rawItems(list)), ShapeFlat
	}

	var named map[string]json.RawMessage
	if err := json.Unmarshal(raw, &named); err != nil {
		return nil, ShapeNone
	}
	for _, key := range namedListPriority {
		if items, ok := decodeList(named[key]); ok {
			return flatTree(items), ShapeNamed
		}
	}
	// remaining keys in sorted order since JSON objects carry none
	keys := make([]string, 0, len(named))
	for key := range named {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if items, ok := decodeList(named[key]); ok {
			return flatTree(items), ShapeNamed
		}
	}
	return nil, ShapeNone
}

func decodeList(raw json.RawMessage) ([]any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func rawItems(list []json.RawMessage) []any {
	out := make([]any, 0, len(list))
	for _, entry := range list {
		var v any
		if json.Unmarshal(entry, &v) == nil {
			out = append(out, v)
		}
	}
	return out
}

func decodeLooseMenus(list []json.RawMessage) []exportMenu {
	out := make([]exportMenu, 0, len(list))
	for _, entry := range list {
		var menu exportMenu
		if json.Unmarshal(entry, &menu) == nil {
			out = append(out, menu)
		}
	}
	return out
}

// flatTree reads {title|label, path|slug} items. Items missing either are
// skipped.
func flatTree(items []any) []*Node {
	var out []*Node
	for _, item := range items {
		entry := manifest.Map(item)
		if entry == nil {
			continue
		}
		title := manifest.FirstString(entry, "title", "label")
		path := manifest.FirstString(entry, "path", "slug")
		if title == "" || path == "" {
			continue
		}
		out = append(out, &Node{Title: title, URL: path})
	}
	return out
}

// exportTree selects a menu for location and rebuilds its hierarchy.
func exportTree(menus []exportMenu, location string, locations map[string]any) []*Node {
	if len(menus) == 0 {
		return nil
	}
	selected := ""
	if location != "" {
		selected = menuForLocation(location, locations)
	}
	if selected == "" {
		selected = menus[0].Slug
	}

	var items []map[string]any
	for _, menu := range menus {
		if selected != "" && menu.Slug != "" && menu.Slug != selected {
			continue
		}
		if menu.Items != nil {
			items = menu.Items
			break
		}
	}
	return buildHierarchy(items)
}

// menuForLocation maps a theme location to a menu slug: exact key first,
// then the first key (sorted) contained in the location.
func menuForLocation(location string, locations map[string]any) string {
	if len(locations) == 0 {
		return ""
	}
	if v, ok := locations[location]; ok {
		return showcasepackages.NormalizeSlug(manifest.String(v))
	}
	keys := make([]string, 0, len(locations))
	for key := range locations {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	lowered := strings.ToLower(location)
	for _, key := range keys {
		slug, ok := locations[key].(string)
		if !ok || key == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(key)) {
			return showcasepackages.NormalizeSlug(slug)
		}
	}
	return ""
}

// buildHierarchy collects nodes by id, then attaches each to its parent.
// Items without a title are dropped; orphans become roots.
func buildHierarchy(items []map[string]any) []*Node {
	nodes := make([]*Node, 0, len(items))
	byID := make(map[int64]*Node, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		title := manifest.String(item["title"])
		if title == "" {
			continue
		}
		id, _ := manifest.Int64(item["ID"])
		parent, _ := manifest.Int64(item["menu_item_parent"])
		node := &Node{
			ID:       id,
			ParentID: parent,
			Order:    manifest.Int(item["menu_order"]),
			Title:    title,
			URL:      manifest.FirstString(item, "url", "object_slug"),
			Target:   manifest.String(item["target"]),
		}
		nodes = append(nodes, node)
		if id != 0 {
			byID[id] = node
		}
	}

	var roots []*Node
	for _, node := range nodes {
		if parent, ok := byID[node.ParentID]; ok && node.ParentID != 0 && parent != node && !isAncestor(node, parent, byID) {
			parent.Children = append(parent.Children, node)
			continue
		}
		roots = append(roots, node)
	}
	sortLevel(roots)
	return roots
}

// isAncestor reports whether node is already above candidate, which would
// make attaching node under candidate a cycle.
func isAncestor(node, candidate *Node, byID map[int64]*Node) bool {
	seen := map[*Node]bool{}
	for cur := candidate; cur != nil && !seen[cur]; {
		if cur == node {
			return true
		}
		seen[cur] = true
		if cur.ParentID == 0 {
			return false
		}
		cur = byID[cur.ParentID]
	}
	return false
}

func sortLevel(level []*Node) {
	sort.SliceStable(level, func(i, j int) bool {
		if level[i].Order != level[j].Order {
			return level[i].Order < level[j].Order
		}
		return level[i].ID < level[j].ID
	})
	for _, node := range level {
		sortLevel(node.Children)
	}
}
