package main

import "github.com/Tyrowin/roomchat/cmd/server/cmd"

func main() {
	cmd.Execute()
}
