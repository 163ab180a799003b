package main

import "github.com/vietdv277/autoclass/cmd"

func main() {
	cmd.Execute()
}
