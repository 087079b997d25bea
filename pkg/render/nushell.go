package render

import (
	"fmt"
	"strings"

	"github.com/go-collectivist/collectivist/pkg/collection"
)

// Nushell renders a small interactive script that loads index.yaml and
// offers a few canned queries over it. It never executes anything
// itself — it is text for the caller to write to collection.nu.
func Nushell(idx *collection.Index, cfg *collection.Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s - Interactive Nushell Explorer\n", nonEmpty(cfg.Name, "Collection"))
	b.WriteString("# Generated by Collectivist\n\n")
	b.WriteString("let data = (open index.yaml)\n\n")

	fmt.Fprintf(&b, "print $\"Collection: %s\"\n", nushellEscape(nonEmpty(cfg.Name, "Collection")))
	fmt.Fprintf(&b, "print $\"Domain: %s\"\n", nushellEscape(nonEmpty(cfg.CollectionType, "unknown")))
	fmt.Fprintf(&b, "print $\"Items: %d\"\n", len(idx.Items))
	b.WriteString("print \"\"\n\n")

	b.WriteString("print \"Collection Items:\"\n")
	b.WriteString("$data.items | table -e | sort-by category short_name\n\n")

	b.WriteString("def show-by-category [category: string] {\n")
	b.WriteString("    $data.items | where category == $category | table -e\n")
	b.WriteString("}\n\n")

	b.WriteString("def search-items [query: string] {\n")
	b.WriteString("    $data.items | where short_name =~ $query or description =~ $query | table -e\n")
	b.WriteString("}\n\n")

	b.WriteString("def show-stats [] {\n")
	b.WriteString("    $data.items | group-by category | each {|group|\n")
	b.WriteString("        print $\"(($group.group)): (($group.items | length)) items\"\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")

	return b.String()
}

func nushellEscape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
