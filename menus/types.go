package menus

// Node is one entry of a reconstructed navigation tree.
type Node struct {
	ID       int64   `json:"id"`
	ParentID int64   `json:"parent_id,omitempty"`
	Order    int     `json:"order"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Target   string  `json:"target,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// Manifest files read by the menu reconstructor.
const (
	MenusFile     = "menus.json"
	LocationsFile = "menu-locations.json"
)

// DefaultLocation is the theme location rendered by the preview shell.
const DefaultLocation = "primary"

// DefaultFallbackSize caps the menu built from pages when a package has no
// usable menu.
const DefaultFallbackSize = 12

// Walk visits every node depth first.
func Walk(forest []*Node, fn func(node *Node, depth int)) {
	var visit func(nodes []*Node, depth int)
	visit = func(nodes []*Node, depth int) {
		for _, node := range nodes {
			if node == nil {
				continue
			}
			fn(node, depth)
			visit(node.Children, depth+1)
		}
	}
	visit(forest, 0)
}
