package main

import "github.com/oshokin/libsync/cmd/libsync/cmd"

func main() {
	cmd.Execute()
}
