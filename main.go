package main

import "github.com/toylibrary/lending-platform/cmd"

func main() {
	cmd.Execute()
}
