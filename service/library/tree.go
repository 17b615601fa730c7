package library

import "strings"

type Folder struct {
	Name     string   `json:"name"`
	Children []Folder `json:"children,omitempty"`
}

// DocumentTree is the fixed layout of the documents library. Uploads land in
// the leaf folders or in folders the user creates below them.
var DocumentTree = []Folder{
	{
		Name: "Shipping line/Terminal Authorities",
		Children: leaves(
			"MSC Authority", "CMA Authority", "PIL Authority", "Hapagloyd Authority",
			"Hullblyte Authority", "COSCO Authority", "BESTAF Authority", "Fivestar Authority",
			"Sifax Authority", "APMT Authority", "TICT Authority", "ENL Authority",
		),
	},
	{
		Name: "FORM C30",
		Children: leaves(
			"Apapa Form C30", "TICT Form C30", "PTML Form C30", "KLT Form C30",
		),
	},
}

// CompanyFileTree has one top-level folder per category.
var CompanyFileTree = leaves(
	"Policies", "Procedures", "Certificates", "Licenses", "Contracts", "Reports", "Other",
)

func leaves(names ...string) []Folder {
	out := make([]Folder, len(names))
	for i, name := range names {
		out[i] = Folder{Name: name}
	}
	return out
}

// lookup walks tree along path. Folder names may contain "/" themselves
// ("Shipping line/Terminal Authorities"), so each level matches on the
// longest name that prefixes the remaining path.
func lookup(tree []Folder, path string) ([]Folder, bool) {
	if path == "" {
		return tree, true
	}
	for _, f := range tree {
		if path == f.Name {
			return f.Children, true
		}
		if rest, ok := strings.CutPrefix(path, f.Name+"/"); ok {
			if children, found := lookup(f.Children, rest); found {
				return children, true
			}
		}
	}
	return nil, false
}
