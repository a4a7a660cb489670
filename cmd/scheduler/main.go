package main

import "github.com/ramiqadoumi/go-drive-quest/services/scheduler/cli"

func main() {
	cli.Execute()
}
