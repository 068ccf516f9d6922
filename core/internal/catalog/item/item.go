// Package item is a catalog entry used by registry tests.
package item

type Item struct {
	ID    string `jsonapi:"primary,items"`
	Title string `jsonapi:"attr,title"`
}
