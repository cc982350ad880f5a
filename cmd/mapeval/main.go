package main

import "github.com/money-shredder/map-service/cmd/mapeval/cmd"

func main() {
	cmd.Execute()
}
