package main

import "github.com/frahmantamala/blogging-platform/cmd"

func main() {
	cmd.Execute()
}
