// Package item is a vault entry used by registry tests. It shares its
// package and type name with the catalog item.
package item

type Item struct {
	ID     string `jsonapi:"primary,secrets"`
	Secret string `jsonapi:"attr,secret"`
}
