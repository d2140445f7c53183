package browser

import "sort"

// bookmarkNode is one node of Chrome's Bookmarks JSON tree. A node with a
// children collection is a folder; a node with a URL is a leaf.
type bookmarkNode struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	URL      string         `json:"url"`
	Children []bookmarkNode `json:"children"`
}

type bookmarkFile struct {
	Roots map[string]bookmarkNode `json:"roots"`
}

// reservedRoots are Chrome's top-level container folders. They never name a
// group; their children inherit the enclosing context instead.
var reservedRoots = map[string]bool{
	"Bookmarks bar":    true,
	"Other bookmarks":  true,
	"Mobile bookmarks": true,
}

// rootOrder fixes the traversal order of the top-level roots; Go map
// iteration would otherwise make the first-discovered-wins dedup
// nondeterministic.
var rootOrder = []string{"bookmark_bar", "other", "synced"}

type walkFrame struct {
	node  *bookmarkNode
	group string // nearest enclosing named group, "" above any
}

// walkBookmarks traverses the bookmark tree depth-first with an explicit
// stack, attributing each qualifying leaf URL to its innermost ancestor
// folder's name. Leaves above any named folder are discarded, and a folder
// with an empty name clears the context rather than inheriting it. Dedup
// by video identity is global across the walk: the first occurrence in
// traversal order wins, even across folders.
func walkBookmarks(file *bookmarkFile, groups *Groups) {
	seen := make(map[string]bool)

	for _, key := range orderedRootKeys(file.Roots) {
		root := file.Roots[key]
		stack := []walkFrame{{node: &root, group: ""}}

		for len(stack) > 0 {
			frame := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			node := frame.node

			if node.Children != nil {
				group := frame.group
				if node.ID != "0" && !reservedRoots[node.Name] {
					group = node.Name
				}
				// push in reverse so children pop in order
				for i := len(node.Children) - 1; i >= 0; i-- {
					stack = append(stack, walkFrame{node: &node.Children[i], group: group})
				}
				continue
			}

			if node.URL == "" || frame.group == "" {
				continue
			}
			if !IsVideoURL(node.URL) {
				continue
			}
			id, ok := VideoID(node.URL)
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			groups.Add(frame.group, node.URL)
		}
	}
}

func orderedRootKeys(roots map[string]bookmarkNode) []string {
	keys := make([]string, 0, len(roots))
	for _, k := range rootOrder {
		if _, ok := roots[k]; ok {
			keys = append(keys, k)
		}
	}

	var extra []string
	for k := range roots {
		known := false
		for _, o := range rootOrder {
			if k == o {
				known = true
				break
			}
		}
		if !known {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}
