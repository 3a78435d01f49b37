package main

import "github.com/Sena-ops/wpguard/cmd"

func main() {
	cmd.Execute()
}
