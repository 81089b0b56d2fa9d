package main

import "github.com/anxuanzi/domsnap-go/cmd/domsnap/cmd"

func main() {
	cmd.Execute()
}
