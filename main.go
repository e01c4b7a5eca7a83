package main

import "mirror-backend/cmd"

func main() {
	cmd.Run()
}
