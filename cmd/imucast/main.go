package main

import (
	"imucast/cli"
)

func main() {
	cli.Execute()
}
