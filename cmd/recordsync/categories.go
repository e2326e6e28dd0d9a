package main

import (
	"fmt"

	"github.com/fwojciec/recordsync"
)

// Run executes the categories command.
func (c *CategoriesCmd) Run(deps *Dependencies) error {
	m := recordsync.DefaultCategories
	for _, label := range m.Labels() {
		fmt.Fprintf(deps.Stdout, "%-22s %v\n", label, m.Resolve(label).IDs())
	}
	fmt.Fprintf(deps.Stdout, "%-22s %v\n", "(other)", recordsync.CategorySet{m.Root, m.Group, m.Fallback}.IDs())
	return nil
}
