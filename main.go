package main

import "github.com/hurou927/schema-sync/cmd"

func main() {
	cmd.Execute()
}
