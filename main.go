package main

import "github.com/spatialbench/annotator/cmd"

func main() {
	cmd.Execute()
}
