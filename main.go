package main

import "github.com/widgetbus/widgetbus/cmd"

func main() {
	cmd.Execute()
}
