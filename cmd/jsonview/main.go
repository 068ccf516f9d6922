// Package main is the entry point for jsonview.
package main

func main() {
	Execute()
}
