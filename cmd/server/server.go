// Package main is the entry point of the graveyard manager.
// It sets up and starts the server by calling initialization functions from the internal package.
package main

import (
	"graveyard-manager/internal"
)

func main() {
	internal.Init()
}
