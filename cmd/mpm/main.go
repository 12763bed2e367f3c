// Package main provides the mpm CLI entry point.
package main

func main() {
	Execute()
}
