package main

import "github.com/dayuer/justrobot-go/cmd"

func main() {
	cmd.Execute()
}
